package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

// WarnFunc is a function type for handling non-fatal parse warnings
type WarnFunc func(format string, args ...any)

// Parser turns template text into templates and registers every placeholder
// variable in its registry. The expression id counter belongs to the parser
// and restarts on every Parse call, so separate parsers never interfere.
type Parser struct {
	registry *registry.Registry
	nextID   int
	warnFunc WarnFunc
}

type Option func(*Parser)

func WithWarnFunc(fn WarnFunc) Option {
	return func(p *Parser) {
		p.warnFunc = fn
	}
}

func NewParser(reg *registry.Registry, opts ...Option) *Parser {
	if reg == nil {
		reg = registry.New()
	}
	p := &Parser{registry: reg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the parser registers variables into.
func (p *Parser) Registry() *registry.Registry {
	return p.registry
}

// SetWarnFunc sets a function to be called for skipped template lines
func (p *Parser) SetWarnFunc(fn WarnFunc) {
	p.warnFunc = fn
}

func (p *Parser) warn(format string, args ...any) {
	if p.warnFunc != nil {
		p.warnFunc(format, args...)
	}
}

func (p *Parser) reset() {
	p.nextID = 0
}

func (p *Parser) newExpression(ph Placeholder, t vartype.Type, loc Location) *Expression {
	p.nextID++
	return &Expression{
		ID:           "VAR_" + strconv.Itoa(p.nextID),
		VariableName: ph.Name,
		Type:         t,
		Format:       ph.Format,
		Original:     ph.Original,
		Location:     loc,
	}
}

func (p *Parser) register(e *Expression, source registry.Source) {
	p.registry.Register(registry.NewVariable(e.VariableName, e.Type, source, e.Format))
}

// markBody replaces every placeholder in body with a marker string. A
// placeholder outside a JSON string becomes a quoted marker so the result
// parses as JSON; one inside a string is replaced in place.
func (p *Parser) markBody(body string, bodyLine int) (string, []*Expression, error) {
	placeholders := FindPlaceholders(body)
	if len(placeholders) == 0 {
		return body, nil, nil
	}

	var sb strings.Builder
	exprs := make([]*Expression, 0, len(placeholders))
	inString, escaped := false, false
	scanned, last := 0, 0

	for _, ph := range placeholders {
		for ; scanned < ph.Start; scanned++ {
			c := body[scanned]
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			}
		}
		scanned = ph.End

		t, err := ph.Type()
		if err != nil {
			return "", nil, typeError("body", lineOf(body, ph.Start, bodyLine), ph, err)
		}
		expr := p.newExpression(ph, t, LocationBody)
		exprs = append(exprs, expr)

		sb.WriteString(body[last:ph.Start])
		if inString {
			sb.WriteString(Marker(expr.ID))
		} else {
			sb.WriteString(`"` + Marker(expr.ID) + `"`)
		}
		last = ph.End
	}
	sb.WriteString(body[last:])
	return sb.String(), exprs, nil
}

// markerVisit is one marker found in a parsed body tree.
type markerVisit struct {
	path   string
	expr   *Expression
	inline bool
}

// collectMarkers walks the tree and returns every marker string node in
// pre-order. Strings holding a marker next to other text are inline.
func collectMarkers(root *jsontree.Node, exprs []*Expression) []markerVisit {
	index := make(map[string]*Expression, len(exprs))
	for _, e := range exprs {
		index[e.ID] = e
	}

	var visits []markerVisit
	jsontree.Traverse(root, "", func(path string, node *jsontree.Node) {
		if node.Kind != jsontree.KindString {
			return
		}
		if path == "" {
			path = "/"
		}
		if id, ok := MarkerID(node.Str); ok {
			if e, found := index[id]; found {
				visits = append(visits, markerVisit{path: path, expr: e})
			}
			return
		}
		for _, id := range InlineMarkerIDs(node.Str) {
			if e, found := index[id]; found {
				visits = append(visits, markerVisit{path: path, expr: e, inline: true})
			}
		}
	})
	return visits
}

// keyPlaceholder returns the first expression whose marker appears in an
// object member key, or nil.
func keyPlaceholder(root *jsontree.Node, exprs []*Expression) *Expression {
	if root == nil {
		return nil
	}
	switch root.Kind {
	case jsontree.KindObject:
		for _, m := range root.Members {
			if e := markedExpression(m.Key, exprs); e != nil {
				return e
			}
			if e := keyPlaceholder(m.Value, exprs); e != nil {
				return e
			}
		}
	case jsontree.KindArray:
		for _, item := range root.Items {
			if e := keyPlaceholder(item, exprs); e != nil {
				return e
			}
		}
	}
	return nil
}

func markedExpression(s string, exprs []*Expression) *Expression {
	for _, e := range exprs {
		if strings.Contains(s, Marker(e.ID)) {
			return e
		}
	}
	return nil
}

// detectProjection walks pointer against the tree. A pointer passing through
// one array index yields a projection over that array; a second array index
// is an error. Pointers outside any array yield nil.
func detectProjection(root *jsontree.Node, pointer string) (*Projection, error) {
	segments := jsontree.SplitPointer(pointer)
	if root == nil || len(segments) == 0 {
		return nil, nil
	}

	var proj *Projection
	depth := 0
	current := root

	for i, seg := range segments {
		if current == nil {
			break
		}
		switch current.Kind {
		case jsontree.KindArray:
			depth++
			if depth > 1 {
				return nil, fmt.Errorf("%w: %s", ErrNestedArray, pointer)
			}
			idx, ok := jsontree.ParseIndex(seg)
			if !ok || idx >= len(current.Items) {
				return nil, fmt.Errorf("%w: segment %q in %s", ErrInvalidArrayIndex, seg, pointer)
			}
			proj = &Projection{
				CollectionPointer: jsontree.BuildPointer(segments[:i], true, true),
				ElementPointer:    jsontree.BuildPointer(segments[i+1:], true, false),
			}
			current = current.Items[idx]
		case jsontree.KindObject:
			next, ok := current.Member(seg)
			if !ok {
				next = nil
			}
			current = next
		default:
			current = nil
		}
	}

	if proj != nil && proj.ElementPointer == "" {
		proj.ElementPointer = "/"
	}
	return proj, nil
}
