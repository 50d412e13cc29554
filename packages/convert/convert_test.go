package convert

import (
	"math"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   vartype.Type
	}{
		{"bool true", true, vartype.Bool},
		{"bool false", false, vartype.Bool},
		{"int", int64(-42), vartype.Int},
		{"int max", int64(math.MaxInt64), vartype.Int},
		{"string", "he said \"hi\"\n\tand\\left", vartype.String},
		{"empty string", "", vartype.String},
		{"unicode string", "naïve 漢字", vartype.String},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := ToJSONText(tt.value, tt.typ)
			assert.Equal(t, tt.value, FromJSONText(text, tt.typ))
		})
	}
}

func TestRoundTrip_Float(t *testing.T) {
	for _, f := range []float64{0, 1.5, -3.25, 1e-7, 123456.789, 1e21} {
		text := ToJSONText(f, vartype.Float)
		got, ok := FromJSONText(text, vartype.Float).(float64)
		require.True(t, ok, text)
		assert.InDelta(t, f, got, 1e-6, text)
	}
}

func TestRoundTrip_DateTime(t *testing.T) {
	orig := time.Date(2024, 3, 5, 14, 30, 15, 123000000, time.UTC)
	text := ToJSONText(orig, vartype.DateTime)
	assert.Equal(t, `"2024-03-05T14:30:15.123Z"`, text)

	got, ok := FromJSONText(text, vartype.DateTime).(time.Time)
	require.True(t, ok)
	assert.True(t, orig.Equal(got))
}

func TestToJSONText(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		typ      vartype.Type
		expected string
	}{
		{"nil", nil, vartype.String, "null"},
		{"bool lowercase", true, vartype.Bool, "true"},
		{"int", int64(5), vartype.Int, "5"},
		{"float invariant", 2.5, vartype.Float, "2.5"},
		{"string escapes", "a\"b\\c\nd\re\tf", vartype.String, `"a\"b\\c\nd\re\tf"`},
		{"int array", []any{int64(1), int64(2)}, vartype.ArrayOf(vartype.Int), "[1,2]"},
		{"string array", []any{"a", "b"}, vartype.ArrayOf(vartype.String), `["a","b"]`},
		{"empty array", []any{}, vartype.ArrayOf(vartype.Bool), "[]"},
		{"scalar for array", int64(3), vartype.ArrayOf(vartype.Int), "[3]"},
		{"int from plain int", 7, vartype.Int, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToJSONText(tt.value, tt.typ))
		})
	}
}

func TestFromNode(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		typ      vartype.Type
		expected any
	}{
		{"number to int", `42`, vartype.Int, int64(42)},
		{"float to int rounds", `2.6`, vartype.Int, int64(3)},
		{"int to float", `4`, vartype.Float, 4.0},
		{"string to int", `"17"`, vartype.Int, int64(17)},
		{"bad string to int", `"abc"`, vartype.Int, int64(0)},
		{"string to bool", `"TRUE"`, vartype.Bool, true},
		{"number to bool", `0`, vartype.Bool, false},
		{"bool passes", `true`, vartype.Bool, true},
		{"number to string", `12.5`, vartype.String, "12.5"},
		{"object to string", `{"a":1}`, vartype.String, `{"a":1}`},
		{"null to default", `null`, vartype.Float, 0.0},
		{"array of ints", `[1,"2",3.4]`, vartype.ArrayOf(vartype.Int), []any{int64(1), int64(2), int64(3)}},
		{"scalar wrapped", `"x"`, vartype.ArrayOf(vartype.String), []any{"x"}},
		{"null array", `null`, vartype.ArrayOf(vartype.String), []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := jsontree.Parse(tt.json)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, FromNode(n, tt.typ))
		})
	}
}

func TestFromNode_NilNode(t *testing.T) {
	assert.Equal(t, "", FromNode(nil, vartype.String))
	assert.Equal(t, []any{}, FromNode(nil, vartype.ArrayOf(vartype.Int)))
}

func TestTryFromNode(t *testing.T) {
	v, ok := TryFromNode(jsontree.String("12"), vartype.Int)
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	_, ok = TryFromNode(jsontree.String("twelve"), vartype.Int)
	assert.False(t, ok)

	_, ok = TryFromNode(jsontree.Null(), vartype.Bool)
	assert.False(t, ok)

	v, ok = TryFromNode(jsontree.Array(jsontree.Int(1), jsontree.String("x")), vartype.ArrayOf(vartype.Int))
	assert.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(0)}, v)
}

func TestTryFromText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		typ      vartype.Type
		expected any
		ok       bool
	}{
		{"int", " 12 ", vartype.Int, int64(12), true},
		{"int invalid", "twelve", vartype.Int, nil, false},
		{"float invariant", "3.75", vartype.Float, 3.75, true},
		{"float comma rejected", "3,75", vartype.Float, nil, false},
		{"bool", "False", vartype.Bool, false, true},
		{"bool invalid", "yes", vartype.Bool, nil, false},
		{"string keeps spaces", " a ", vartype.String, " a ", true},
		{"json array", `[1, 2]`, vartype.ArrayOf(vartype.Int), []any{int64(1), int64(2)}, true},
		{"single element", `5`, vartype.ArrayOf(vartype.Int), []any{int64(5)}, true},
		{"empty array text", ``, vartype.ArrayOf(vartype.Int), []any{}, true},
		{"broken array", `[1,`, vartype.ArrayOf(vartype.Int), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TryFromText(tt.text, tt.typ)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestFromText_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, int64(0), FromText("nope", vartype.Int))
	assert.Equal(t, []any{}, FromText("[oops", vartype.ArrayOf(vartype.Int)))
}

func TestFromValue(t *testing.T) {
	assert.Equal(t, int64(3), FromValue(3, vartype.Int))
	assert.Equal(t, 3.0, FromValue(int64(3), vartype.Float))
	assert.Equal(t, "true", FromValue(true, vartype.String))
	assert.Equal(t, []any{int64(1), int64(2)}, FromValue([]any{1, "2"}, vartype.ArrayOf(vartype.Int)))
	assert.Equal(t, []any{"x"}, FromValue("x", vartype.ArrayOf(vartype.String)))
	assert.Equal(t, int64(0), FromValue([]any{1}, vartype.Int))
	assert.Equal(t, int64(0), FromValue(nil, vartype.Int))
}

func TestToNode(t *testing.T) {
	assert.Equal(t, `[1,2]`, ToNode([]any{int64(1), int64(2)}, vartype.ArrayOf(vartype.Int)).Compact())
	assert.Equal(t, `"x"`, ToNode("x", vartype.String).Compact())
	assert.Equal(t, `null`, ToNode(nil, vartype.Int).Compact())
	assert.Equal(t, `false`, ToNode(false, vartype.Bool).Compact())
}

func TestBroadcast(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		out := Broadcast("x", n)
		assert.Len(t, out, n)
		for _, v := range out {
			assert.Equal(t, "x", v)
		}
	}

	list := []any{int64(1), int64(2)}
	assert.Equal(t, list, Broadcast(list, 5))
}
