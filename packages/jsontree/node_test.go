package jsontree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Kinds(t *testing.T) {
	root, err := Parse(`{"s":"x","i":42,"f":1.5,"e":1e3,"t":true,"n":null,"a":[],"o":{}}`)
	require.NoError(t, err)
	require.Equal(t, KindObject, root.Kind)

	kinds := map[string]Kind{}
	for _, m := range root.Members {
		kinds[m.Key] = m.Value.Kind
	}
	assert.Equal(t, map[string]Kind{
		"s": KindString, "i": KindInt, "f": KindFloat, "e": KindFloat,
		"t": KindBool, "n": KindNull, "a": KindArray, "o": KindObject,
	}, kinds)

	i, _ := root.Member("i")
	assert.Equal(t, int64(42), i.Int)
	e, _ := root.Member("e")
	assert.Equal(t, 1000.0, e.Float)
}

func TestParse_PreservesMemberOrder(t *testing.T) {
	text := `{"z":1,"a":2,"m":{"y":[1,2,3],"b":"q"}}`
	root, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, text, root.Compact())
}

func TestParse_Invalid(t *testing.T) {
	for _, text := range []string{"", "{", `{"a":}`, "[1,]", "   "} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrInvalidJSON, text)
	}
}

func TestCompact_EscapesStrings(t *testing.T) {
	n := String("a\"b\\c\nd\te\x01")
	assert.Equal(t, `"a\"b\\c\nd\te\u0001"`, n.Compact())

	round, err := Parse(n.Compact())
	require.NoError(t, err)
	assert.Equal(t, n.Str, round.Str)
}

func TestClone_IsDeep(t *testing.T) {
	root, err := Parse(`{"a":[{"b":1}]}`)
	require.NoError(t, err)

	clone := root.Clone()
	_, err = Set(clone, "/a/0/b", Int(2))
	require.NoError(t, err)

	assert.Equal(t, `{"a":[{"b":1}]}`, root.Compact())
	assert.Equal(t, `{"a":[{"b":2}]}`, clone.Compact())
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", Pretty(`{"a":1}`))
	assert.Equal(t, "not json", Pretty("not json"))
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON(`{"a":1}`))
	assert.True(t, IsJSON(` [1] `))
	assert.False(t, IsJSON(`"str"`))
	assert.False(t, IsJSON(`nope`))
}
