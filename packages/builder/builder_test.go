package builder

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/template"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) (*template.RequestTemplate, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	tmpl, err := template.NewParser(reg).ParseRequest(text)
	require.NoError(t, err)
	return tmpl, reg
}

func set(t *testing.T, reg *registry.Registry, name string, value any) {
	t.Helper()
	_, ok := reg.SetValue(name, value)
	require.True(t, ok, "variable %s not registered", name)
}

func TestBuild_URLPlaceholder(t *testing.T) {
	tmpl, reg := parse(t, "GET /items/@(id)")
	set(t, reg, "id", "42")

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/items/42", req.Path)
	assert.Equal(t, "GET /items/42", req.Text)
	assert.Empty(t, req.Body)
}

func TestBuild_HeaderSubstitution(t *testing.T) {
	tmpl, reg := parse(t, "GET /search?q=@(q)&page=@(page)\nAuthorization: Bearer @(token)\nX-Trace: @(token)-@(page)")
	set(t, reg, "q", "go")
	set(t, reg, "page", "2")
	set(t, reg, "token", "abc")

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)

	assert.Equal(t, "/search?q=go&page=2", req.Path)
	assert.Equal(t, []template.Header{
		{Name: "Authorization", Value: "Bearer abc"},
		{Name: "X-Trace", Value: "abc-2"},
	}, req.Headers)
	assert.Equal(t, "GET /search?q=go&page=2\nAuthorization: Bearer abc\nX-Trace: abc-2", req.Text)
	assert.Equal(t, []string{"abc-2"}, req.HeaderMap()["X-Trace"])
}

func TestBuild_ScalarBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		values   map[string]any
		expected string
	}{
		{
			name:     "int",
			body:     `{"count":"@Int(n)"}`,
			values:   map[string]any{"n": int64(5)},
			expected: `{"count":5}`,
		},
		{
			name:     "bare placeholders",
			body:     `{"ok": @Bool(ok), "ratio": @Float(r)}`,
			values:   map[string]any{"ok": true, "r": 0.5},
			expected: `{"ok":true,"ratio":0.5}`,
		},
		{
			name:     "string is escaped",
			body:     `{"name":"@(name)"}`,
			values:   map[string]any{"name": "a \"b\"\n"},
			expected: `{"name":"a \"b\"\n"}`,
		},
		{
			name:     "date with format",
			body:     `{"at":"@DateTime(at:yyyy-MM-dd)"}`,
			values:   map[string]any{"at": time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)},
			expected: `{"at":"2024-01-07"}`,
		},
		{
			name:     "root value",
			body:     `@Int(n)`,
			values:   map[string]any{"n": int64(9)},
			expected: `9`,
		},
		{
			name:     "inline text",
			body:     `{"greeting":"Hello @(name)!"}`,
			values:   map[string]any{"name": `Bob "B"`},
			expected: `{"greeting":"Hello Bob \"B\"!"}`,
		},
		{
			name:     "array variable at plain pointer",
			body:     `{"tags":"@String[](tags)"}`,
			values:   map[string]any{"tags": []any{"x", "y"}},
			expected: `{"tags":["x","y"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, reg := parse(t, "POST /x\nContent-Type: application/json\n\n"+tt.body)
			for name, value := range tt.values {
				set(t, reg, name, value)
			}

			req, err := New(reg).Build(tmpl)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Body)
			assert.True(t, strings.HasSuffix(req.Text, "\n\n"+tt.expected))
		})
	}
}

func TestBuild_ArrayBroadcast(t *testing.T) {
	for n := 1; n <= 4; n++ {
		tmpl, reg := parse(t, "POST /orders\n\n{\"items\":[{\"sku\":\"@(skus)\",\"qty\":\"@Int(qty)\"}]}")

		skus := make([]any, n)
		for i := range skus {
			skus[i] = string(rune('a' + i))
		}
		set(t, reg, "skus", skus)
		set(t, reg, "qty", int64(3))

		req, err := New(reg).Build(tmpl)
		require.NoError(t, err)

		expected := make([]string, n)
		for i := range expected {
			expected[i] = `{"sku":"` + string(rune('a'+i)) + `","qty":3}`
		}
		assert.Equal(t, `{"items":[`+strings.Join(expected, ",")+`]}`, req.Body)
	}
}

func TestBuild_SingleValueListBroadcasts(t *testing.T) {
	tmpl, reg := parse(t, "POST /orders\n\n{\"items\":[{\"sku\":\"@(skus)\",\"qty\":\"@Int(qty)\"}]}")
	set(t, reg, "skus", []any{"a", "b"})
	set(t, reg, "qty", []any{int64(1)})

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[{"sku":"a","qty":1},{"sku":"b","qty":1}]}`, req.Body)
}

func TestBuild_InconsistentArrayLength(t *testing.T) {
	tmpl, reg := parse(t, "POST /orders\n\n{\"items\":[{\"sku\":\"@(skus)\",\"qty\":\"@Int(qty)\"}]}")
	set(t, reg, "skus", []any{"a", "b"})
	set(t, reg, "qty", []any{int64(1), int64(2), int64(3)})

	req, err := New(reg).Build(tmpl)
	assert.Nil(t, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentArrayLength))
}

func TestBuild_WholeElementSlots(t *testing.T) {
	tests := []struct {
		name     string
		values   any
		expected string
	}{
		{"list", []any{int64(1), int64(2), int64(3)}, `{"ids":[1,2,3],"page":1}`},
		{"empty list", []any{}, `{"ids":[],"page":1}`},
		{"scalar", int64(7), `{"ids":[7],"page":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, reg := parse(t, "POST /batch\n\n{\"ids\":[\"@Int(ids)\"],\"page\":1}")
			set(t, reg, "ids", tt.values)

			req, err := New(reg).Build(tmpl)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Body)
		})
	}
}

func TestBuild_RootArray(t *testing.T) {
	tmpl, reg := parse(t, "POST /batch\n\n[{\"id\":\"@Int(ids)\",\"kind\":\"fixed\"}]")
	set(t, reg, "ids", []any{int64(4), int64(5)})

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":4,"kind":"fixed"},{"id":5,"kind":"fixed"}]`, req.Body)
}

func TestBuild_DoesNotMutateTemplate(t *testing.T) {
	tmpl, reg := parse(t, "POST /batch\n\n{\"ids\":[\"@Int(ids)\"]}")
	before := tmpl.Tree.Compact()
	set(t, reg, "ids", []any{int64(1), int64(2)})

	_, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, before, tmpl.Tree.Compact())
}

func TestBuild_UnknownVariableUsesDefault(t *testing.T) {
	tmpl, reg := parse(t, "POST /x\n\n{\"count\":\"@Int(n)\",\"name\":\"@(name)\"}")
	reg.Clear()

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `{"count":0,"name":""}`, req.Body)
}

func TestBuild_MarkerSubstitution(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.NewVariable("n", vartype.Int, registry.SourceRequest, ""))
	reg.Register(registry.NewVariable("who", vartype.String, registry.SourceRequest, ""))
	set(t, reg, "n", int64(7))
	set(t, reg, "who", `x"y`)

	tmpl := &template.RequestTemplate{
		Method: "POST",
		URL:    "/legacy",
		Body:   `{"n":"${VAR_1}$","msg":"hi ${VAR_2}$"}`,
		Expressions: []*template.Expression{
			{ID: "VAR_1", VariableName: "n", Type: vartype.Int, Location: template.LocationBody},
			{ID: "VAR_2", VariableName: "who", Type: vartype.String, Location: template.LocationBody},
		},
	}

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `{"n":7,"msg":"hi x\"y"}`, req.Body)
}

func TestBuild_MarkerSubstitutionFormatsDates(t *testing.T) {
	at := time.Date(2024, 1, 7, 9, 30, 0, 0, time.UTC)
	reg := registry.New()
	reg.Register(registry.NewVariable("at", vartype.DateTime, registry.SourceRequest, "yyyy-MM-dd"))
	set(t, reg, "at", at)

	tmpl := &template.RequestTemplate{
		Method: "POST",
		URL:    "/legacy",
		Body:   `{"day":"${VAR_1}$","note":"on ${VAR_1}$"}`,
		Expressions: []*template.Expression{
			{ID: "VAR_1", VariableName: "at", Type: vartype.DateTime, Format: "yyyy-MM-dd", Location: template.LocationBody},
		},
	}

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, `{"day":"2024-01-07","note":"on 2024-01-07"}`, req.Body)

	tree, treeReg := parse(t, "POST /x\n\n{\"day\":\"@DateTime(at:yyyy-MM-dd)\"}")
	set(t, treeReg, "at", at)
	fromTree, err := New(treeReg).Build(tree)
	require.NoError(t, err)
	assert.Equal(t, `{"day":"2024-01-07"}`, fromTree.Body)
}

func TestBuild_KeyPlaceholderRejected(t *testing.T) {
	_, err := template.NewParser(registry.New()).ParseRequest("POST /x\n\n{\"@(k)\":1,\"v\":\"@Int(n)\"}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, template.ErrPlaceholderInKey))
}

func TestBuild_PlainTextBody(t *testing.T) {
	tmpl, reg := parse(t, "POST /echo\nContent-Type: text/plain\n\nhello world")

	req, err := New(reg).Build(tmpl)
	require.NoError(t, err)
	assert.Equal(t, "hello world", req.Body)
}

func TestBuild_NilTemplate(t *testing.T) {
	_, err := New(registry.New()).Build(nil)
	assert.ErrorIs(t, err, ErrNilTemplate)
}
