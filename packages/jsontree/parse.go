package jsontree

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var ErrInvalidJSON = errors.New("invalid JSON")

// Parse parses JSON text into a Node tree.
func Parse(text string) (*Node, error) {
	text = strings.TrimSpace(text)
	if text == "" || !gjson.Valid(text) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.Parse(text)), nil
}

// ParseBytes is like Parse for a byte slice.
func ParseBytes(data []byte) (*Node, error) {
	return Parse(string(data))
}

func fromResult(r gjson.Result) *Node {
	switch r.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return parseNumber(r)
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			items := make([]*Node, 0)
			r.ForEach(func(_, value gjson.Result) bool {
				items = append(items, fromResult(value))
				return true
			})
			return Array(items...)
		}
		members := make([]Member, 0)
		r.ForEach(func(key, value gjson.Result) bool {
			members = append(members, Member{Key: key.Str, Value: fromResult(value)})
			return true
		})
		return Object(members...)
	default:
		return Null()
	}
}

func parseNumber(r gjson.Result) *Node {
	raw := strings.TrimSpace(r.Raw)
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(i)
		}
	}
	return Float(r.Num)
}

// Pretty re-indents JSON text. Text that is not valid JSON is returned as is.
func Pretty(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return text
	}
	return strings.TrimRight(string(pretty.Pretty([]byte(trimmed))), "\n")
}

// IsJSON reports whether text is a JSON object or array.
func IsJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return false
	}
	r := gjson.Parse(trimmed)
	return r.IsObject() || r.IsArray()
}
