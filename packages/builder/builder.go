package builder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/template"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

var (
	ErrNilTemplate             = errors.New("request template is nil")
	ErrInconsistentArrayLength = errors.New("inconsistent array length")
	ErrMissingCollection       = errors.New("array collection not found")
)

// Request is a materialized request ready to be sent.
type Request struct {
	Method  string
	Path    string
	Headers []template.Header
	Body    string
	Text    string
}

// HeaderMap groups headers by name, keeping repeated headers.
func (r *Request) HeaderMap() map[string][]string {
	out := make(map[string][]string, len(r.Headers))
	for _, h := range r.Headers {
		out[h.Name] = append(out[h.Name], h.Value)
	}
	return out
}

// Builder reads variable values from a registry to fill request templates.
type Builder struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Builder {
	return &Builder{registry: reg}
}

// Build materializes tmpl with the current registry values.
func (b *Builder) Build(tmpl *template.RequestTemplate) (*Request, error) {
	if tmpl == nil {
		return nil, ErrNilTemplate
	}

	req := &Request{
		Method: tmpl.Method,
		Path:   b.substitute(tmpl.URL, tmpl.ExpressionsAt(template.LocationURL)),
	}

	headerExprs := tmpl.ExpressionsAt(template.LocationHeader)
	for _, h := range tmpl.Headers {
		req.Headers = append(req.Headers, template.Header{
			Name:  h.Name,
			Value: b.substitute(h.Value, headerExprs),
		})
	}

	body, err := b.buildBody(tmpl)
	if err != nil {
		return nil, err
	}
	req.Body = body
	req.Text = requestText(req)
	return req, nil
}

// substitute replaces each placeholder's original text with the formatted
// value of its variable. Unknown variables are left in place.
func (b *Builder) substitute(text string, exprs []*template.Expression) string {
	for _, e := range exprs {
		if !strings.Contains(text, e.Original) {
			continue
		}
		v, ok := b.registry.Get(e.VariableName)
		if !ok {
			continue
		}
		text = strings.ReplaceAll(text, e.Original, v.FormattedValue())
	}
	return text
}

func (b *Builder) buildBody(tmpl *template.RequestTemplate) (string, error) {
	if strings.TrimSpace(tmpl.Body) == "" {
		return "", nil
	}
	if !tmpl.HasBodyStructure() {
		return b.substituteMarkers(tmpl.Body, tmpl.ExpressionsAt(template.LocationBody)), nil
	}

	root := tmpl.Tree.Clone()
	for _, arr := range tmpl.Arrays {
		if err := b.fillArray(root, arr); err != nil {
			return "", err
		}
	}

	for _, ph := range tmpl.Placeholders {
		v := b.lookup(ph.Expression)
		if ph.Inline {
			node, ok := jsontree.Get(root, ph.Pointer)
			if !ok || node.Kind != jsontree.KindString {
				continue
			}
			node.Str = strings.ReplaceAll(node.Str, template.Marker(ph.Expression.ID), v.FormattedValue())
			continue
		}

		var err error
		root, err = jsontree.Set(root, ph.Pointer, valueNode(v, v.Value, v.Type))
		if err != nil {
			return "", fmt.Errorf("placeholder %s: %w", ph.Expression.Original, err)
		}
	}
	return root.Compact(), nil
}

// substituteMarkers is the text-only path: every quoted marker is replaced
// with the JSON text of its value and inline markers with the formatted text.
// Values are rendered as on the tree path.
func (b *Builder) substituteMarkers(body string, exprs []*template.Expression) string {
	for _, e := range exprs {
		v := b.lookup(e)
		marker := template.Marker(e.ID)
		body = strings.ReplaceAll(body, `"`+marker+`"`, valueNode(v, v.Value, v.Type).Compact())
		body = strings.ReplaceAll(body, marker, escapeInline(v.FormattedValue()))
	}
	return body
}

// lookup returns the bound variable of e, or a detached variable holding the
// default of the expression type when the name is unknown.
func (b *Builder) lookup(e *template.Expression) *registry.Variable {
	if v, ok := b.registry.Get(e.VariableName); ok {
		return v
	}
	return registry.NewVariable(e.VariableName, e.Type, registry.SourceRequest, e.Format)
}

type slotValues struct {
	slot   template.ArraySlot
	elem   vartype.Type
	values []any
	list   bool
	v      *registry.Variable
}

// fillArray rebuilds one array block. Array-typed slots drive the element
// count and must agree on it unless they hold exactly one value; scalar and
// single-value slots are repeated on every element.
func (b *Builder) fillArray(root *jsontree.Node, arr *template.ArrayTemplate) error {
	node, ok := jsontree.Get(root, arr.CollectionPointer)
	if !ok || node.Kind != jsontree.KindArray {
		return fmt.Errorf("%w: %s", ErrMissingCollection, arr.CollectionPointer)
	}

	slots := make([]slotValues, 0, len(arr.Slots))
	for _, slot := range arr.Slots {
		v := b.lookup(slot.Expression)
		sv := slotValues{slot: slot, elem: v.Type.Elem(), v: v}
		if list, isList := v.Value.([]any); isList {
			sv.values = list
			sv.list = true
		} else {
			sv.values = []any{v.Value}
		}
		slots = append(slots, sv)
	}

	n, err := broadcastLength(arr.CollectionPointer, slots)
	if err != nil {
		return err
	}

	items := make([]*jsontree.Node, 0, n)
	for i := 0; i < n; i++ {
		elem := arr.Prototype.Clone()
		for _, sv := range slots {
			value := sv.values[0]
			if len(sv.values) > 1 {
				value = sv.values[i]
			}
			child := valueNode(sv.v, value, sv.elem)

			if jsontree.IsRoot(sv.slot.ElementPointer) || !elem.IsContainer() {
				elem = child
				continue
			}
			if elem, err = jsontree.Set(elem, sv.slot.ElementPointer, child); err != nil {
				return fmt.Errorf("array %s slot %s: %w", arr.CollectionPointer, sv.slot.ElementPointer, err)
			}
		}
		items = append(items, elem)
	}
	node.Items = items
	return nil
}

func broadcastLength(pointer string, slots []slotValues) (int, error) {
	n := -1
	for _, sv := range slots {
		if !sv.list || len(sv.values) == 1 {
			continue
		}
		if n >= 0 && n != len(sv.values) {
			return 0, fmt.Errorf("%w: %s has slots of length %d and %d", ErrInconsistentArrayLength, pointer, n, len(sv.values))
		}
		n = len(sv.values)
	}
	if n < 0 {
		return 1, nil
	}
	return n, nil
}

// valueNode converts one value to its JSON node. Dates of a variable with a
// format are written in that format.
func valueNode(v *registry.Variable, value any, t vartype.Type) *jsontree.Node {
	if !t.IsArray() && t.Kind() == vartype.KindDateTime && v.Format != "" {
		if ts, ok := convert.FromValue(value, t).(time.Time); ok {
			return jsontree.String(convert.FormatTime(ts, v.Format))
		}
	}
	return convert.ToNode(value, t)
}

func escapeInline(s string) string {
	quoted := convert.ToJSONText(s, vartype.String)
	return quoted[1 : len(quoted)-1]
}

func requestText(r *Request) string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteString(" ")
	sb.WriteString(r.Path)
	for _, h := range r.Headers {
		sb.WriteString("\n")
		sb.WriteString(h.Name)
		sb.WriteString(": ")
		sb.WriteString(h.Value)
	}
	if r.Body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(r.Body)
	}
	return sb.String()
}
