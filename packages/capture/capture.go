package capture

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/template"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/http"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

// WarnFunc receives extraction failures. Failures are never fatal.
type WarnFunc func(format string, args ...any)

// Extractor writes the values captured from a response into a registry.
type Extractor struct {
	registry *registry.Registry
	warnFunc WarnFunc
}

type Option func(*Extractor)

func WithWarnFunc(fn WarnFunc) Option {
	return func(e *Extractor) {
		e.warnFunc = fn
	}
}

func NewExtractor(reg *registry.Registry, opts ...Option) *Extractor {
	e := &Extractor{registry: reg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetWarnFunc sets a function to be called for failed captures
func (e *Extractor) SetWarnFunc(fn WarnFunc) {
	e.warnFunc = fn
}

func (e *Extractor) warn(format string, args ...any) {
	if e.warnFunc != nil {
		e.warnFunc(format, args...)
	}
}

// Extract stores the status code, then every header and body capture of
// tmpl, and returns the resulting changes in order.
func (e *Extractor) Extract(tmpl *template.ResponseTemplate, resp *http.Response) []registry.Change {
	changes := []registry.Change{e.registry.SetStatusCode(resp.StatusCode)}
	if tmpl == nil {
		return changes
	}
	changes = append(changes, e.extractHeaders(tmpl.HeaderMappings, resp)...)
	changes = append(changes, e.extractBody(tmpl.BodyMappings, resp)...)
	return changes
}

type headerGroup struct {
	name     string
	mappings []*template.HeaderMapping
}

// groupHeaders groups mappings by header name in template order.
func groupHeaders(mappings []*template.HeaderMapping) []*headerGroup {
	var groups []*headerGroup
	index := make(map[string]*headerGroup)
	for _, m := range mappings {
		k := strings.ToLower(m.Header)
		g, ok := index[k]
		if !ok {
			g = &headerGroup{name: m.Header}
			index[k] = g
			groups = append(groups, g)
		}
		g.mappings = append(g.mappings, m)
	}
	return groups
}

func (e *Extractor) extractHeaders(mappings []*template.HeaderMapping, resp *http.Response) []registry.Change {
	var changes []registry.Change
	for _, g := range groupHeaders(mappings) {
		candidates := resp.HeaderValues(g.name)
		groups, ok := matchHeader(g.mappings[0], candidates)
		if !ok {
			if len(candidates) == 0 {
				e.warn("header %s not found in response", g.name)
			} else {
				e.warn("header %s did not match %s", g.name, g.mappings[0].Pattern)
			}
			for _, m := range g.mappings {
				changes = append(changes, e.registry.ApplyDefault(m.Variable, m.Type))
			}
			continue
		}

		for _, m := range g.mappings {
			if m.Group >= len(groups) {
				e.warn("header %s has no capture group %d for %s", g.name, m.Group, m.Variable)
				changes = append(changes, e.registry.ApplyDefault(m.Variable, m.Type))
				continue
			}
			changes = append(changes, e.storeText(m.Variable, m.Type, groups[m.Group]))
		}
	}
	return changes
}

// matchHeader tries each candidate value in turn and returns the groups of
// the first match. Index 0 holds the whole value.
func matchHeader(m *template.HeaderMapping, candidates []string) ([]string, bool) {
	re := m.Regexp()
	for _, value := range candidates {
		if re == nil {
			return []string{value, value}, true
		}
		if groups := re.FindStringSubmatch(value); groups != nil {
			return groups, true
		}
	}
	return nil, false
}

func (e *Extractor) storeText(name string, t vartype.Type, text string) registry.Change {
	value, ok := convert.TryFromText(text, t)
	if !ok {
		e.warn("cannot convert %q to %s for %s", text, t, name)
		return e.registry.ApplyDefault(name, t)
	}
	return e.registry.Upsert(name, t, value)
}

func (e *Extractor) extractBody(mappings []*template.BodyMapping, resp *http.Response) []registry.Change {
	if len(mappings) == 0 {
		return nil
	}

	if !resp.IsJSON() {
		e.warn("response body is not JSON (Content-Type %q)", resp.ContentType())
		return e.applyDefaults(mappings)
	}
	root, err := jsontree.ParseBytes(resp.Body)
	if err != nil {
		e.warn("response body is not JSON: %v", err)
		return e.applyDefaults(mappings)
	}

	changes := make([]registry.Change, 0, len(mappings))
	for _, m := range mappings {
		if m.IsProjection() {
			changes = append(changes, e.extractProjection(root, m))
			continue
		}
		changes = append(changes, e.extractPointer(root, m))
	}
	return changes
}

func (e *Extractor) applyDefaults(mappings []*template.BodyMapping) []registry.Change {
	changes := make([]registry.Change, 0, len(mappings))
	for _, m := range mappings {
		changes = append(changes, e.registry.ApplyDefault(m.Variable, m.Type))
	}
	return changes
}

func (e *Extractor) extractPointer(root *jsontree.Node, m *template.BodyMapping) registry.Change {
	node, ok := jsontree.Get(root, m.Pointer)
	if !ok {
		e.warn("%s not found in response body for %s", m.Pointer, m.Variable)
		return e.registry.ApplyDefault(m.Variable, m.Type)
	}
	value, ok := convert.TryFromNode(node, m.Type)
	if !ok {
		e.warn("cannot convert %s to %s for %s", node.Compact(), m.Type, m.Variable)
		return e.registry.ApplyDefault(m.Variable, m.Type)
	}
	return e.registry.Upsert(m.Variable, m.Type, value)
}

// extractProjection reads the element pointer from every element of the
// collection. Elements missing the pointer take the element default.
func (e *Extractor) extractProjection(root *jsontree.Node, m *template.BodyMapping) registry.Change {
	t := vartype.Promote(m.Type)

	collection, ok := jsontree.Get(root, m.Projection.CollectionPointer)
	if !ok || collection.Kind != jsontree.KindArray {
		e.warn("%s is not an array in response body for %s", m.Projection.CollectionPointer, m.Variable)
		return e.registry.ApplyDefault(m.Variable, t)
	}

	elem := t.Elem()
	values := make([]any, 0, len(collection.Items))
	for i, item := range collection.Items {
		node, found := jsontree.Get(item, m.Projection.ElementPointer)
		if !found {
			e.warn("%s%s not found in element %d for %s", m.Projection.CollectionPointer, m.Projection.ElementPointer, i, m.Variable)
		}
		values = append(values, convert.FromNode(node, elem))
	}
	return e.registry.Upsert(m.Variable, t, values)
}

// ExtractAll is a shorthand for a single extraction without warnings.
func ExtractAll(reg *registry.Registry, tmpl *template.ResponseTemplate, resp *http.Response) []registry.Change {
	return NewExtractor(reg).Extract(tmpl, resp)
}

// Describe renders a change record for verbose output.
func Describe(c registry.Change) string {
	if c.Kind == registry.ChangeRegistered {
		return fmt.Sprintf("%s = %v (new)", c.Name, c.New)
	}
	return fmt.Sprintf("%s: %v -> %v", c.Name, c.Old, c.New)
}
