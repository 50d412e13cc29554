package env

import (
	"fmt"
	"testing"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("HITPLATE_TEST_TOKEN", "t0k")

	tests := []struct {
		name      string
		input     string
		variables map[string]string
		captures  map[string]string
		expected  string
	}{
		{name: "no references", input: "hello world", expected: "hello world"},
		{name: "simple variable", input: "hello {{name}}", variables: map[string]string{"name": "world"}, expected: "hello world"},
		{name: "spaces inside braces", input: "{{ name }}", variables: map[string]string{"name": "x"}, expected: "x"},
		{name: "environment variable", input: "Bearer {{$HITPLATE_TEST_TOKEN}}", expected: "Bearer t0k"},
		{name: "builtin with dollar", input: "{{$base64(abc)}}", expected: "YWJj"},
		{name: "builtin without dollar", input: "{{list(a,b)}}", expected: `["a","b"]`},
		{name: "capture wins over variable", input: "{{id}}", variables: map[string]string{"id": "1"}, captures: map[string]string{"id": "2"}, expected: "2"},
		{name: "namespaced capture", input: "/users/{{create.id}}", captures: map[string]string{"create.id": "7"}, expected: "/users/7"},
		{name: "unresolved stays as-is", input: "hello {{unknown}}", expected: "hello {{unknown}}"},
		{name: "unknown env stays as-is", input: "{{$HITPLATE_TEST_UNSET_VAR}}", expected: "{{$HITPLATE_TEST_UNSET_VAR}}"},
		{name: "unknown function stays as-is", input: "{{nope()}}", expected: "{{nope()}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			r.SetVariables(tt.variables)
			for k, v := range tt.captures {
				r.captures[k] = v
			}

			assert.Equal(t, tt.expected, r.Resolve(tt.input))
		})
	}
}

func TestResolver_Warnings(t *testing.T) {
	var warnings []string
	r := NewResolver()
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	r.Resolve("{{missing}} {{random(x, 1)}}")

	require.Len(t, warnings, 2)
	assert.Equal(t, "unresolved variable: missing", warnings[0])
	assert.Contains(t, warnings[1], "function call random(x, 1) failed")
}

func TestResolver_UnresolvedVariables(t *testing.T) {
	r := NewResolver()
	r.SetVariable("bar", "middle")

	assert.Equal(t, []string{"foo", "baz"}, r.GetUnresolvedVariables("{{foo}} {{bar}} {{baz}} {{$HOME}} {{uuid()}}"))
	assert.True(t, r.HasUnresolvedVariables("{{foo}}"))
	assert.False(t, r.HasUnresolvedVariables("{{bar}}"))
	assert.Nil(t, r.GetUnresolvedVariables("plain"))
}

func TestResolver_Capture(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.NewVariable("id", vartype.Int, registry.SourceResponse, ""))
	reg.Register(registry.NewVariable("name", vartype.String, registry.SourceRequest, ""))
	reg.Register(registry.NewVariable("tags", vartype.ArrayOf(vartype.String), registry.SourceResponse, ""))
	_, _ = reg.SetValue("id", int64(42))
	_, _ = reg.SetValue("tags", []any{"a", "b"})
	reg.SetStatusCode(201)

	r := NewResolver()
	r.Capture("create", reg)

	assert.Equal(t, "/users/42", r.Resolve("/users/{{create.id}}"))
	assert.Equal(t, "42", r.Resolve("{{id}}"))
	assert.Equal(t, `["a","b"]`, r.Resolve("{{create.tags}}"))
	assert.Equal(t, "201", r.Resolve("{{create.$StatusCode}}"))
	assert.False(t, r.HasVariable("name"))
}

func TestResolver_Clone(t *testing.T) {
	r := NewResolver()
	r.SetVariable("a", "1")
	clone := r.Clone()
	clone.SetVariable("a", "2")

	v, _ := r.GetVariable("a")
	assert.Equal(t, "1", v)
	v, _ = clone.GetVariable("a")
	assert.Equal(t, "2", v)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("HITPLATE_VAR_userId", "9")

	vars := LoadSystemEnv("HITPLATE_VAR_")
	assert.Equal(t, "9", vars["userId"])
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(map[string]string{"a": "1", "b": "1"}, nil, map[string]string{"b": "2"})
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, merged)
}
