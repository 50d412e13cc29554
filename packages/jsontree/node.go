package jsontree

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is a tagged JSON value. Only the field matching Kind is meaningful.
type Node struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Items   []*Node
	Members []Member
}

func Null() *Node {
	return &Node{Kind: KindNull}
}

func Bool(b bool) *Node {
	return &Node{Kind: KindBool, Bool: b}
}

func Int(i int64) *Node {
	return &Node{Kind: KindInt, Int: i}
}

func Float(f float64) *Node {
	return &Node{Kind: KindFloat, Float: f}
}

func String(s string) *Node {
	return &Node{Kind: KindString, Str: s}
}

func Array(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: KindArray, Items: items}
}

func Object(members ...Member) *Node {
	if members == nil {
		members = []Member{}
	}
	return &Node{Kind: KindObject, Members: members}
}

func (n *Node) IsContainer() bool {
	return n != nil && (n.Kind == KindArray || n.Kind == KindObject)
}

// Len returns the number of items or members, or 0 for scalars.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindArray:
		return len(n.Items)
	case KindObject:
		return len(n.Members)
	default:
		return 0
	}
}

// Member returns the value stored under key in an object node.
func (n *Node) Member(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// SetMember replaces the value under key, appending a new member when the key
// is not present.
func (n *Node) SetMember(key string, value *Node) {
	for i := range n.Members {
		if n.Members[i].Key == key {
			n.Members[i].Value = value
			return
		}
	}
	n.Members = append(n.Members, Member{Key: key, Value: value})
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	switch n.Kind {
	case KindArray:
		c.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			c.Items[i] = item.Clone()
		}
	case KindObject:
		c.Members = make([]Member, len(n.Members))
		for i, m := range n.Members {
			c.Members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	return &c
}

func (n *Node) String() string {
	return n.Compact()
}
