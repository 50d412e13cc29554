package builtin

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		expr    string
		matches string
		exact   string
	}{
		{name: "uuid", expr: "uuid()", matches: `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`},
		{name: "timestamp", expr: "timestamp()", matches: `^\d{10}$`},
		{name: "timestampMs", expr: "timestampMs()", matches: `^\d{13}$`},
		{name: "now default", expr: "now()", matches: `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`},
		{name: "now with format", expr: "now(yyyy-MM-dd)", matches: `^\d{4}-\d{2}-\d{2}$`},
		{name: "randomString", expr: "randomString(8)", matches: `^[a-zA-Z0-9]{8}$`},
		{name: "randomEmail", expr: "randomEmail()", matches: `^[a-z]{8}@[a-z]{6}\.com$`},
		{name: "base64", expr: "base64('user:pass')", exact: "dXNlcjpwYXNz"},
		{name: "base64Decode", expr: "base64Decode(dXNlcjpwYXNz)", exact: "user:pass"},
		{name: "sha256", expr: "sha256(abc)", exact: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{name: "urlEncode", expr: "urlEncode('a b&c')", exact: "a+b%26c"},
		{name: "list", expr: "list(a, 'b, c', d)", exact: `["a","b, c","d"]`},
		{name: "empty list", expr: "list()", exact: `[]`},
		{name: "repeat", expr: "repeat(x, 3)", exact: `["x","x","x"]`},
		{name: "range", expr: "range(1, 4)", exact: `[1,2,3]`},
		{name: "empty range", expr: "range(3, 1)", exact: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok, err := r.Call(tt.expr)
			require.NoError(t, err)
			require.True(t, ok)
			if tt.exact != "" {
				assert.Equal(t, tt.exact, out)
			} else {
				assert.Regexp(t, regexp.MustCompile(tt.matches), out)
			}
		})
	}
}

func TestRegistry_CallRandomRange(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		out, ok, err := r.Call("random(5, 7)")
		require.NoError(t, err)
		require.True(t, ok)
		n, err := strconv.Atoi(out)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 7)
	}
}

func TestRegistry_CallDate(t *testing.T) {
	r := NewRegistry()
	out, _, err := r.Call("date(-1)")
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"), out)
}

func TestRegistry_CallErrors(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		expr string
		ok   bool
	}{
		{expr: "unknown()", ok: false},
		{expr: "not a call", ok: false},
		{expr: "random(a, 3)", ok: true},
		{expr: "random(9, 3)", ok: true},
		{expr: "randomString(-1)", ok: true},
		{expr: "repeat(x)", ok: true},
		{expr: "base64Decode(%%%)", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, ok, err := r.Call(tt.expr)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("tenant", func(args []string) (string, error) { return "acme", nil })

	out, ok, err := r.Call("tenant()")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "acme", out)
	assert.Contains(t, r.Names(), "tenant")
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d,e"}, parseArgs(`a, "b c", 'd,e'`))
	assert.Nil(t, parseArgs(""))
}
