package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"active", "active"},
		{"$StatusCode = 200 && active", "($StatusCode = 200 && active)"},
		{"a || b && c", "(a || (b && c))"},
		{"(a || b) && c", "((a || b) && c)"},
		{"!a && !!b", "(!a && !!b)"},
		{"a && b && c", "((a && b) && c)"},
		{"items[2].Count >= 3", "items[2].Count >= 3"},
		{"name like '%x%'", "name like '%x%'"},
		{"code = '007'", "code = 007"},
		{"ratio <= 0.25", "ratio <= 0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.String())
		})
	}
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"a = true", true},
		{"a = FALSE", false},
		{"a = 42", int64(42)},
		{"a = -7", int64(-7)},
		{"a = 1.5", 1.5},
		{"a = 'text'", "text"},
		{"a = '12'", int64(12)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, NodeComparison, node.Kind)
			assert.Equal(t, tt.expected, node.Literal.Value)
		})
	}
}

func TestParse_Accessor(t *testing.T) {
	node, err := Parse("orders[1].Count")
	require.NoError(t, err)
	require.Equal(t, NodeBoolean, node.Kind)
	assert.Equal(t, "orders", node.Accessor.Name)
	assert.Equal(t, []Segment{
		{Kind: SegmentIndex, Index: 1},
		{Kind: SegmentProperty, Property: "Count"},
	}, node.Accessor.Segments)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "   ", "expression is empty"},
		{"missing literal", "a = b", `expected literal after = but got "b"`},
		{"literal first", "200 = $StatusCode", `expected variable but got "200"`},
		{"missing paren", "(a && b", "expected ) but got end of expression"},
		{"float index", "a[1.5]", `index must be an integer but got "1.5"`},
		{"missing bracket", "a[1 = 2", `expected ] but got "="`},
		{"property not identifier", "a.1", `expected property name after . but got "1"`},
		{"trailing tokens", "a b", `unexpected "b"`},
		{"dangling and", "a &&", "expected variable but got end of expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.input)
			assert.Nil(t, node)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.message, syntaxErr.Message)
		})
	}
}

func TestSyntaxError_Error(t *testing.T) {
	assert.Equal(t, "criteria syntax error at column 3: boom", (&SyntaxError{Column: 3, Message: "boom"}).Error())
	assert.Equal(t, "criteria syntax error: boom", (&SyntaxError{Message: "boom"}).Error())
}
