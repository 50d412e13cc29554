package template

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

type Location int

const (
	LocationURL Location = iota
	LocationHeader
	LocationBody
)

func (l Location) String() string {
	switch l {
	case LocationURL:
		return "url"
	case LocationHeader:
		return "header"
	case LocationBody:
		return "body"
	default:
		return "unknown"
	}
}

// Expression is one placeholder occurrence found while parsing. ID is unique
// within a single parse call.
type Expression struct {
	ID           string
	VariableName string
	Type         vartype.Type
	Format       string
	Original     string
	Location     Location
}

// ElementType is the element type for array expressions and Type otherwise.
func (e *Expression) ElementType() vartype.Type {
	return e.Type.Elem()
}

func (e *Expression) String() string {
	s := e.ID + " " + e.VariableName + " (" + e.Type.String() + ")"
	if e.Format != "" {
		s += " format " + e.Format
	}
	return s + " in " + e.Location.String()
}

type Header struct {
	Name  string
	Value string
}

// Projection addresses one value per element of a JSON array.
// ElementPointer is relative to an element; "/" means the whole element.
type Projection struct {
	CollectionPointer string
	ElementPointer    string
}

// BodyPlaceholder binds a plain body placeholder to its absolute pointer.
// Inline placeholders sit inside a longer string and are substituted as text.
type BodyPlaceholder struct {
	Pointer    string
	Expression *Expression
	Inline     bool
}

// ArraySlot is a placeholder inside the sample element of a request array.
type ArraySlot struct {
	ElementPointer string
	Expression     *Expression
}

// ArrayTemplate describes one request array rebuilt from its first element.
type ArrayTemplate struct {
	CollectionPointer string
	Prototype         *jsontree.Node
	Slots             []ArraySlot
}

// RequestTemplate is the parsed form of a request template.
type RequestTemplate struct {
	Method  string
	URL     string
	Headers []Header

	// Body is the body text with every placeholder replaced by its quoted
	// marker. Tree is nil when the body is empty or is plain non-JSON text.
	Body         string
	Tree         *jsontree.Node
	Placeholders []BodyPlaceholder
	Arrays       []*ArrayTemplate

	Expressions []*Expression
	Original    string
}

// HasBodyStructure reports whether the body carries pointer metadata.
func (t *RequestTemplate) HasBodyStructure() bool {
	return t.Tree != nil && (len(t.Placeholders) > 0 || len(t.Arrays) > 0)
}

// ExpressionsAt returns the expressions found in the given location.
func (t *RequestTemplate) ExpressionsAt(loc Location) []*Expression {
	return filterExpressions(t.Expressions, loc)
}

// Header returns the first header with the given name.
func (t *RequestTemplate) Header(name string) (string, bool) {
	return findHeader(t.Headers, name)
}

func (t *RequestTemplate) array(pointer string) *ArrayTemplate {
	for _, a := range t.Arrays {
		if a.CollectionPointer == pointer {
			return a
		}
	}
	return nil
}

// HeaderMapping captures one regex group of a response header into a
// variable. Group numbering starts at 1.
type HeaderMapping struct {
	Header   string
	Pattern  string
	Group    int
	Variable string
	Type     vartype.Type

	re *regexp.Regexp
}

// Regexp returns the compiled pattern. It is nil when Pattern is empty.
func (m *HeaderMapping) Regexp() *regexp.Regexp {
	if m.re == nil && m.Pattern != "" {
		m.re = regexp.MustCompile(m.Pattern)
	}
	return m.re
}

// BodyMapping extracts a variable from the response body, either from a
// direct pointer or by projection over an array.
type BodyMapping struct {
	Variable   string
	Type       vartype.Type
	Pointer    string
	Projection *Projection
}

func (m *BodyMapping) IsProjection() bool {
	return m.Projection != nil
}

// ResponseTemplate is the parsed form of a response template.
type ResponseTemplate struct {
	ExpectedStatus int
	Reason         string
	Headers        []Header

	Body string
	Tree *jsontree.Node

	HeaderMappings []*HeaderMapping
	BodyMappings   []*BodyMapping
	Expressions    []*Expression
	Original       string
}

// Header returns the first header with the given name.
func (t *ResponseTemplate) Header(name string) (string, bool) {
	return findHeader(t.Headers, name)
}

func filterExpressions(exprs []*Expression, loc Location) []*Expression {
	var out []*Expression
	for _, e := range exprs {
		if e.Location == loc {
			out = append(out, e)
		}
	}
	return out
}

func findHeader(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
