package convert

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

// FromNode converts a parsed JSON node into a value of type t.
func FromNode(n *jsontree.Node, t vartype.Type) any {
	if t.IsArray() {
		if n == nil || n.Kind == jsontree.KindNull {
			return t.Default()
		}
		elem := t.Elem()
		if n.Kind != jsontree.KindArray {
			return []any{FromNode(n, elem)}
		}
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = FromNode(item, elem)
		}
		return out
	}

	if v, ok := scalarFromNode(n, t.Kind()); ok {
		return v
	}
	return t.Default()
}

// TryFromNode is the strict form of FromNode for scalar types: it reports
// whether the node could be represented in type t. Array types always
// succeed, with unconvertible elements set to their default.
func TryFromNode(n *jsontree.Node, t vartype.Type) (any, bool) {
	if t.IsArray() {
		return FromNode(n, t), true
	}
	return scalarFromNode(n, t.Kind())
}

func scalarFromNode(n *jsontree.Node, kind vartype.Kind) (any, bool) {
	if n == nil || n.Kind == jsontree.KindNull {
		return nil, false
	}
	if n.Kind == jsontree.KindString {
		return parseScalar(n.Str, kind)
	}

	switch kind {
	case vartype.KindBool:
		switch n.Kind {
		case jsontree.KindBool:
			return n.Bool, true
		case jsontree.KindInt:
			return n.Int != 0, true
		case jsontree.KindFloat:
			return n.Float != 0, true
		}
	case vartype.KindInt:
		switch n.Kind {
		case jsontree.KindInt:
			return n.Int, true
		case jsontree.KindFloat:
			return floatToInt(n.Float)
		case jsontree.KindBool:
			return boolToInt(n.Bool), true
		}
	case vartype.KindFloat:
		switch n.Kind {
		case jsontree.KindInt:
			return float64(n.Int), true
		case jsontree.KindFloat:
			return n.Float, true
		case jsontree.KindBool:
			return float64(boolToInt(n.Bool)), true
		}
	case vartype.KindString:
		return n.Compact(), true
	case vartype.KindDateTime:
		if n.Kind == jsontree.KindInt {
			return time.Unix(n.Int, 0), true
		}
	}
	return nil, false
}

// FromText converts raw text into a value of type t. Array types accept a
// JSON array; any other text is treated as a single element.
func FromText(s string, t vartype.Type) any {
	if v, ok := TryFromText(s, t); ok {
		return v
	}
	return t.Default()
}

// TryFromText is the strict form of FromText: it reports whether the text
// could be represented in type t.
func TryFromText(s string, t vartype.Type) (any, bool) {
	if t.IsArray() {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return []any{}, true
		}
		if strings.HasPrefix(trimmed, "[") {
			n, err := jsontree.Parse(trimmed)
			if err != nil || n.Kind != jsontree.KindArray {
				return nil, false
			}
			return FromNode(n, t), true
		}
		v, ok := parseScalar(s, t.Kind())
		if !ok {
			return nil, false
		}
		return []any{v}, true
	}
	return parseScalar(s, t.Kind())
}

// FromJSONText parses text as JSON and converts the result. Text that is not
// valid JSON is converted as raw text.
func FromJSONText(text string, t vartype.Type) any {
	n, err := jsontree.Parse(text)
	if err != nil {
		return FromText(text, t)
	}
	return FromNode(n, t)
}

func parseScalar(s string, kind vartype.Kind) (any, bool) {
	switch kind {
	case vartype.KindString:
		return s, true
	case vartype.KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case vartype.KindInt:
		trimmed := strings.TrimSpace(s)
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return floatToInt(f)
		}
	case vartype.KindFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	case vartype.KindDateTime:
		if d, ok := ParseDateTime(s); ok {
			return d, true
		}
	}
	return nil, false
}

// FromValue coerces an already typed Go value into type t.
func FromValue(v any, t vartype.Type) any {
	if v == nil {
		return t.Default()
	}
	if n, ok := v.(*jsontree.Node); ok {
		return FromNode(n, t)
	}

	if t.IsArray() {
		list, ok := v.([]any)
		if !ok {
			return []any{FromValue(v, t.Elem())}
		}
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = FromValue(item, t.Elem())
		}
		return out
	}

	switch val := v.(type) {
	case time.Time:
		switch t.Kind() {
		case vartype.KindDateTime:
			return val
		case vartype.KindString:
			return val.Format(time.RFC3339Nano)
		}
		return t.Default()
	case string:
		return FromText(val, t)
	case []any:
		return t.Default()
	}

	if n := nativeNode(v); n != nil {
		return FromNode(n, t)
	}
	return t.Default()
}

func nativeNode(v any) *jsontree.Node {
	switch val := v.(type) {
	case bool:
		return jsontree.Bool(val)
	case int:
		return jsontree.Int(int64(val))
	case int32:
		return jsontree.Int(int64(val))
	case int64:
		return jsontree.Int(val)
	case float32:
		return jsontree.Float(float64(val))
	case float64:
		return jsontree.Float(val)
	default:
		return nil
	}
}

func floatToInt(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, false
	}
	return int64(math.Round(f)), true
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Broadcast returns list values unchanged and replicates scalars n times.
func Broadcast(v any, n int) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}
