package registry

import (
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New()

	change := r.Register(NewVariable("UserId", vartype.Int, SourceRequest, ""))
	assert.Equal(t, ChangeRegistered, change.Kind)
	assert.Nil(t, change.Old)
	assert.Equal(t, int64(0), change.New)

	v, ok := r.Get("userid")
	require.True(t, ok)
	assert.Equal(t, "UserId", v.Name)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := New()
	r.Register(NewVariable("id", vartype.String, SourceRequest, ""))
	_, _ = r.SetValue("id", "abc")

	change := r.Register(NewVariable("ID", vartype.Int, SourceRequest, ""))
	assert.Equal(t, "abc", change.Old)
	assert.Equal(t, 1, r.Len())

	v, _ := r.Get("id")
	assert.Equal(t, vartype.Int, v.Type)
}

func TestRegistry_SetValue(t *testing.T) {
	r := New()
	r.Register(NewVariable("n", vartype.Int, SourceRequest, ""))

	change, ok := r.SetValue("N", int64(5))
	require.True(t, ok)
	assert.Equal(t, ChangeValue, change.Kind)
	assert.Equal(t, int64(0), change.Old)
	assert.Equal(t, int64(5), change.New)

	_, ok = r.SetValue("unknown", 1)
	assert.False(t, ok)
}

func TestRegistry_SetFromString(t *testing.T) {
	r := New()
	r.Register(NewVariable("flag", vartype.Bool, SourceRequest, ""))
	r.Register(NewVariable("ids", vartype.ArrayOf(vartype.Int), SourceRequest, ""))

	_, err := r.SetFromString("flag", "true")
	require.NoError(t, err)
	_, err = r.SetFromString("ids", "[1,2,3]")
	require.NoError(t, err)

	flag, _ := r.Get("flag")
	assert.Equal(t, true, flag.Value)
	ids, _ := r.Get("ids")
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, ids.Value)

	_, err = r.SetFromString("flag", "maybe")
	assert.Error(t, err)
	_, err = r.SetFromString("nope", "1")
	assert.Error(t, err)
}

func TestRegistry_AllIsDefensiveCopy(t *testing.T) {
	r := New()
	r.Register(NewVariable("list", vartype.ArrayOf(vartype.String), SourceResponse, ""))
	_, _ = r.SetValue("list", []any{"a"})

	all := r.All()
	all["list"].Value.([]any)[0] = "changed"
	all["list"].Name = "renamed"

	v, _ := r.Get("list")
	assert.Equal(t, []any{"a"}, v.Value)
	assert.Equal(t, "list", v.Name)
}

func TestRegistry_FilteredAndSorted(t *testing.T) {
	r := New()
	r.Register(NewVariable("zeta", vartype.String, SourceRequest, ""))
	r.Register(NewVariable("Alpha", vartype.String, SourceRequest, ""))
	r.Register(NewVariable("beta", vartype.Int, SourceResponse, ""))

	var names []string
	for _, v := range r.RequestVariables() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Alpha", "zeta"}, names)

	resp := r.ResponseVariables()
	require.Len(t, resp, 1)
	assert.Equal(t, "beta", resp[0].Name)
}

func TestRegistry_AllRequiredRequestVariablesSet(t *testing.T) {
	r := New()
	r.Register(NewVariable("name", vartype.String, SourceRequest, ""))
	r.Register(NewVariable("count", vartype.Int, SourceRequest, ""))
	r.Register(NewVariable("echo", vartype.String, SourceResponse, ""))

	assert.False(t, r.AllRequiredRequestVariablesSet())
	assert.Equal(t, []string{"name"}, r.UnsetVariableNames())

	_, _ = r.SetValue("name", "bob")
	assert.True(t, r.AllRequiredRequestVariablesSet())

	_, _ = r.SetValue("echo", nil)
	assert.False(t, r.AllRequiredRequestVariablesSet())
	assert.Equal(t, []string{"echo"}, r.UnsetVariableNames())
}

func TestRegistry_UpsertAndStatusCode(t *testing.T) {
	r := New()

	change := r.SetStatusCode(201)
	assert.Equal(t, ChangeRegistered, change.Kind)

	v, ok := r.Get(StatusCodeVariable)
	require.True(t, ok)
	assert.Equal(t, int64(201), v.Value)
	assert.Equal(t, vartype.Int, v.Type)
	assert.Equal(t, SourceResponse, v.Source)

	change = r.SetStatusCode(404)
	assert.Equal(t, ChangeValue, change.Kind)
	assert.Equal(t, int64(201), change.Old)
}

func TestRegistry_ApplyDefault(t *testing.T) {
	r := New()
	v := NewVariable("token", vartype.String, SourceResponse, "")
	require.True(t, v.SetUserDefaultFromString("fallback"))
	r.Register(v)
	_, _ = r.SetValue("token", "live")

	r.ApplyDefault("token", vartype.String)
	got, _ := r.Get("token")
	assert.Equal(t, "fallback", got.Value)

	r.ApplyDefault("fresh", vartype.ArrayOf(vartype.Int))
	fresh, _ := r.Get("fresh")
	assert.Equal(t, []any{}, fresh.Value)
}

func TestRegistry_Clear(t *testing.T) {
	r := New()
	r.Register(NewVariable("a", vartype.String, SourceRequest, ""))
	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestVariable_FormattedValue(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name     string
		variable *Variable
		expected string
	}{
		{"bool lowercase", &Variable{Type: vartype.Bool, Value: true}, "true"},
		{"int", &Variable{Type: vartype.Int, Value: int64(42)}, "42"},
		{"float", &Variable{Type: vartype.Float, Value: 0.25}, "0.25"},
		{"string", &Variable{Type: vartype.String, Value: "x y"}, "x y"},
		{"date with format", &Variable{Type: vartype.DateTime, Value: ts, Format: "yyyy/MM/dd"}, "2023/12/31"},
		{"date default format", &Variable{Type: vartype.DateTime, Value: ts}, "2023-12-31T23:59:00Z"},
		{"array as json", &Variable{Type: vartype.ArrayOf(vartype.String), Value: []any{"a", "b"}}, `["a","b"]`},
		{"nil", &Variable{Type: vartype.String}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.variable.FormattedValue())
		})
	}
}

func TestVariable_TrySetValue(t *testing.T) {
	v := NewVariable("n", vartype.Int, SourceRequest, "")
	assert.True(t, v.TrySetValue("12"))
	assert.Equal(t, int64(12), v.Value)

	assert.False(t, v.TrySetValue("twelve"))
	assert.Equal(t, int64(12), v.Value)
}

func TestVariable_UserDefault(t *testing.T) {
	v := NewVariable("price", vartype.Float, SourceResponse, "")
	assert.False(t, v.HasUserDefault())
	assert.Equal(t, 0.0, v.EffectiveDefault())

	assert.False(t, v.SetUserDefaultFromString("cheap"))
	assert.False(t, v.HasUserDefault())

	require.True(t, v.SetUserDefaultFromString("9.5"))
	assert.True(t, v.HasUserDefault())
	assert.Equal(t, 9.5, v.EffectiveDefault())
	assert.Equal(t, "9.5", v.UserDefaultText())

	v.ClearUserDefault()
	assert.False(t, v.HasUserDefault())
	assert.Equal(t, 0.0, v.EffectiveDefault())
	assert.Equal(t, "", v.UserDefaultText())
}
