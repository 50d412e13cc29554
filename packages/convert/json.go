package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// ToJSONText serializes v as JSON text for type t. Dates are written quoted
// in RFC 3339 form and arrays as a bracketed, comma-joined list.
func ToJSONText(v any, t vartype.Type) string {
	if v == nil {
		return "null"
	}
	if t.IsArray() {
		list, ok := v.([]any)
		if !ok {
			list = []any{v}
		}
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = ToJSONText(item, t.Elem())
		}
		return "[" + strings.Join(parts, ",") + "]"
	}

	v = FromValue(v, t)
	switch t.Kind() {
	case vartype.KindBool:
		return strconv.FormatBool(v.(bool))
	case vartype.KindInt:
		return strconv.FormatInt(v.(int64), 10)
	case vartype.KindFloat:
		return jsontree.FormatFloat(v.(float64))
	case vartype.KindDateTime:
		return `"` + v.(time.Time).Format(time.RFC3339Nano) + `"`
	default:
		return `"` + stringEscaper.Replace(v.(string)) + `"`
	}
}

// ToNode builds the JSON node for v in type t.
func ToNode(v any, t vartype.Type) *jsontree.Node {
	if v == nil {
		return jsontree.Null()
	}
	if t.IsArray() {
		list, ok := v.([]any)
		if !ok {
			list = []any{v}
		}
		items := make([]*jsontree.Node, len(list))
		for i, item := range list {
			items[i] = ToNode(item, t.Elem())
		}
		return jsontree.Array(items...)
	}

	v = FromValue(v, t)
	switch t.Kind() {
	case vartype.KindBool:
		return jsontree.Bool(v.(bool))
	case vartype.KindInt:
		return jsontree.Int(v.(int64))
	case vartype.KindFloat:
		return jsontree.Float(v.(float64))
	case vartype.KindDateTime:
		return jsontree.String(v.(time.Time).Format(time.RFC3339Nano))
	default:
		return jsontree.String(v.(string))
	}
}
