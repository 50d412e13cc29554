package env

import (
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitplate/packages/builtin"
	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands {{...}} references in binding text. It looks up, in
// order, builtin calls, $ENV variables, values captured from earlier cases
// and plain variables.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	captures  map[string]string
	funcs     *builtin.Registry
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		captures:  make(map[string]string),
		funcs:     builtin.NewRegistry(),
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) Funcs() *builtin.Registry {
	return r.funcs
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// Capture records the formatted values of the response variables of reg,
// $StatusCode included, both as caseName.variable and as the bare name.
func (r *Resolver) Capture(caseName string, reg *registry.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range reg.ResponseVariables() {
		value := v.FormattedValue()
		if caseName != "" {
			r.captures[caseName+"."+v.Name] = value
		}
		r.captures[v.Name] = value
	}
}

func (r *Resolver) GetCapture(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.captures[name]
	return v, ok
}

func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if strings.Contains(expr, "(") {
			out, ok, err := r.funcs.Call(strings.TrimPrefix(expr, "$"))
			if err != nil {
				r.warn("function call %s failed: %v", expr, err)
				return match
			}
			if ok {
				return out
			}
			r.warn("unresolved function call: %s", expr)
			return match
		}

		if strings.HasPrefix(expr, "$") {
			envVar := expr[1:]
			if val, ok := os.LookupEnv(envVar); ok {
				return val
			}
			r.warn("unresolved environment variable: $%s", envVar)
			return match
		}

		if val, ok := r.GetVariable(expr); ok {
			return val
		}

		r.warn("unresolved variable: %s", expr)
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// HasUnresolvedVariables reports whether input references a plain variable
// that is neither captured nor set.
func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

// GetUnresolvedVariables lists the plain variable references of input that
// cannot be resolved, in order of appearance.
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.HasPrefix(expr, "$") || strings.Contains(expr, "(") {
			continue
		}
		if !r.HasVariable(expr) {
			names = append(names, expr)
		}
	}
	return names
}

func (r *Resolver) HasVariable(name string) bool {
	_, ok := r.GetVariable(name)
	return ok
}

// GetVariable prefers captured values over plain variables.
func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	return "", false
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	clone.warnFunc = r.warnFunc
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	for k, v := range r.captures {
		clone.captures[k] = v
	}
	return clone
}
