package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
)

// StatusCodeVariable is the synthetic variable holding the response status.
const StatusCodeVariable = "$StatusCode"

type ChangeKind int

const (
	ChangeRegistered ChangeKind = iota
	ChangeValue
)

func (k ChangeKind) String() string {
	if k == ChangeRegistered {
		return "registered"
	}
	return "changed"
}

// Change describes a single registry mutation. Old is nil for a newly
// registered variable.
type Change struct {
	Kind ChangeKind
	Name string
	Old  any
	New  any
}

// Registry stores the live variables of one test session. Names are
// case-insensitive.
type Registry struct {
	mu   sync.RWMutex
	vars map[string]*Variable
}

func New() *Registry {
	return &Registry{
		vars: make(map[string]*Variable),
	}
}

func key(name string) string {
	return strings.ToLower(name)
}

// Register inserts or overwrites a variable by name.
func (r *Registry) Register(v *Variable) Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	change := Change{Kind: ChangeRegistered, Name: v.Name, New: v.Value}
	if old, ok := r.vars[key(v.Name)]; ok {
		change.Old = old.Value
	}
	r.vars[key(v.Name)] = v
	return change
}

func (r *Registry) Get(name string) (*Variable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[key(name)]
	return v, ok
}

// SetValue replaces the value of a known variable.
func (r *Registry) SetValue(name string, value any) (Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vars[key(name)]
	if !ok {
		return Change{}, false
	}
	change := Change{Kind: ChangeValue, Name: v.Name, Old: v.Value, New: value}
	v.Value = value
	return change, true
}

// SetFromString parses text with the variable's type and stores the result.
func (r *Registry) SetFromString(name, text string) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vars[key(name)]
	if !ok {
		return Change{}, fmt.Errorf("unknown variable %q", name)
	}
	old := v.Value
	if !v.TrySetValue(text) {
		return Change{}, fmt.Errorf("cannot convert %q to %s for variable %s", text, v.Type, v.Name)
	}
	return Change{Kind: ChangeValue, Name: v.Name, Old: old, New: v.Value}, nil
}

// Upsert sets the value of name, registering a response variable of type t
// when it does not exist yet. An existing variable whose type differs is
// retyped to t.
func (r *Registry) Upsert(name string, t vartype.Type, value any) Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vars[key(name)]
	if !ok {
		v = NewVariable(name, t, SourceResponse, "")
		v.Value = value
		r.vars[key(name)] = v
		return Change{Kind: ChangeRegistered, Name: name, New: value}
	}
	change := Change{Kind: ChangeValue, Name: v.Name, Old: v.Value, New: value}
	v.Type = t
	v.Value = value
	return change
}

// All returns copies of every variable keyed by name.
func (r *Registry) All() map[string]*Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Variable, len(r.vars))
	for _, v := range r.vars {
		out[v.Name] = v.Clone()
	}
	return out
}

// Sorted returns copies of every variable ordered by name.
func (r *Registry) Sorted() []*Variable {
	return r.filter(func(*Variable) bool { return true })
}

func (r *Registry) RequestVariables() []*Variable {
	return r.filter(func(v *Variable) bool { return v.Source == SourceRequest })
}

func (r *Registry) ResponseVariables() []*Variable {
	return r.filter(func(v *Variable) bool { return v.Source == SourceResponse })
}

func (r *Registry) filter(keep func(*Variable) bool) []*Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Variable, 0, len(r.vars))
	for _, v := range r.vars {
		if keep(v) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return key(out[i].Name) < key(out[j].Name)
	})
	return out
}

// AllRequiredRequestVariablesSet is the pre-flight gate before building a
// request: every request-scope scalar String must be non-empty and no value
// may be nil.
func (r *Registry) AllRequiredRequestVariablesSet() bool {
	return len(r.UnsetVariableNames()) == 0
}

// UnsetVariableNames lists the variables failing the pre-flight gate.
func (r *Registry) UnsetVariableNames() []string {
	var names []string
	for _, v := range r.Sorted() {
		if isUnset(v) {
			names = append(names, v.Name)
		}
	}
	return names
}

func isUnset(v *Variable) bool {
	if v.Value == nil {
		return true
	}
	if v.Source != SourceRequest || v.Type != vartype.String {
		return false
	}
	s, _ := v.Value.(string)
	return s == ""
}

// SetStatusCode records the response status in the synthetic status variable.
func (r *Registry) SetStatusCode(code int) Change {
	return r.Upsert(StatusCodeVariable, vartype.Int, int64(code))
}

// ApplyDefault resets name to its effective default, creating it with the
// given type when missing.
func (r *Registry) ApplyDefault(name string, t vartype.Type) Change {
	if v, ok := r.Get(name); ok {
		def := v.EffectiveDefault()
		if v.Type != t {
			def = convert.FromValue(def, t)
		}
		return r.Upsert(name, t, def)
	}
	return r.Upsert(name, t, t.Default())
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars = make(map[string]*Variable)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vars)
}
