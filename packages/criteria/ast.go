package criteria

import (
	"strconv"
	"strings"
)

type NodeKind int

const (
	NodeLogical NodeKind = iota
	NodeNot
	NodeComparison
	NodeBoolean
)

func (k NodeKind) String() string {
	switch k {
	case NodeLogical:
		return "logical"
	case NodeNot:
		return "not"
	case NodeComparison:
		return "comparison"
	case NodeBoolean:
		return "boolean"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

func (o LogicalOp) String() string {
	if o == OpAnd {
		return "&&"
	}
	return "||"
}

type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterOrEqual
	OpLessOrEqual
	OpLike
)

var operatorText = map[Operator]string{
	OpEqual:          "=",
	OpNotEqual:       "!=",
	OpGreater:        ">",
	OpLess:           "<",
	OpGreaterOrEqual: ">=",
	OpLessOrEqual:    "<=",
	OpLike:           "like",
}

func (o Operator) String() string {
	if s, ok := operatorText[o]; ok {
		return s
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

func parseOperator(s string) (Operator, bool) {
	for op, text := range operatorText {
		if text == s {
			return op, true
		}
	}
	return 0, false
}

type SegmentKind int

const (
	SegmentProperty SegmentKind = iota
	SegmentIndex
)

// Segment is one accessor step: a property such as Count, or an index.
type Segment struct {
	Kind     SegmentKind
	Property string
	Index    int
}

// Accessor names a variable and an optional chain of segments, as in
// items[0].Count.
type Accessor struct {
	Name     string
	Segments []Segment
}

func (a *Accessor) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)
	for _, seg := range a.Segments {
		switch seg.Kind {
		case SegmentProperty:
			sb.WriteString(".")
			sb.WriteString(seg.Property)
		case SegmentIndex:
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteString("]")
		}
	}
	return sb.String()
}

// Literal is the constant side of a comparison. Value holds the first of
// bool, int64, float64 or string the text parses as; Text keeps the source.
type Literal struct {
	Text  string
	Value any
}

func newLiteral(text string) Literal {
	lower := strings.ToLower(text)
	if lower == "true" || lower == "false" {
		return Literal{Text: text, Value: lower == "true"}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Literal{Text: text, Value: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Literal{Text: text, Value: f}
	}
	return Literal{Text: text, Value: text}
}

func (l Literal) String() string {
	if _, isString := l.Value.(string); isString {
		return "'" + l.Text + "'"
	}
	return l.Text
}

// Node is one node of a parsed criteria expression. Which fields are set
// depends on Kind:
//   - NodeLogical: Op, Left, Right
//   - NodeNot: Inner
//   - NodeComparison: Accessor, Operator, Literal
//   - NodeBoolean: Accessor
type Node struct {
	Kind NodeKind

	Op    LogicalOp
	Left  *Node
	Right *Node

	Inner *Node

	Accessor *Accessor
	Operator Operator
	Literal  Literal
}

func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NodeLogical:
		return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
	case NodeNot:
		return "!" + n.Inner.String()
	case NodeComparison:
		return n.Accessor.String() + " " + n.Operator.String() + " " + n.Literal.String()
	case NodeBoolean:
		return n.Accessor.String()
	default:
		return n.Kind.String()
	}
}
