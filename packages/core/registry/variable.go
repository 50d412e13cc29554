package registry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
)

type Source int

const (
	SourceRequest Source = iota
	SourceResponse
)

func (s Source) String() string {
	switch s {
	case SourceRequest:
		return "request"
	case SourceResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Variable is a named, typed value bound to a template placeholder.
type Variable struct {
	Name   string
	Type   vartype.Type
	Value  any
	Format string
	Source Source

	hasUserDefault bool
	userDefault    any
}

// NewVariable creates a variable holding the type's default value.
func NewVariable(name string, t vartype.Type, source Source, format string) *Variable {
	return &Variable{
		Name:   name,
		Type:   t,
		Value:  t.Default(),
		Format: format,
		Source: source,
	}
}

// FormattedValue renders the value as it is substituted into URLs and
// headers: dates use Format when set, booleans are lowercase and arrays are
// JSON text.
func (v *Variable) FormattedValue() string {
	if v.Value == nil {
		return ""
	}
	if v.Type.IsArray() {
		return convert.ToJSONText(v.Value, v.Type)
	}

	switch val := v.Value.(type) {
	case time.Time:
		if v.Format != "" {
			return convert.FormatTime(val, v.Format)
		}
		return val.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return jsontree.FormatFloat(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// TrySetValue parses text per the variable's type and stores it. The value
// is left untouched when the text does not parse.
func (v *Variable) TrySetValue(text string) bool {
	parsed, ok := convert.TryFromText(text, v.Type)
	if !ok {
		return false
	}
	v.Value = parsed
	return true
}

// SetUserDefaultFromString records a user-chosen fallback value used when
// extraction fails.
func (v *Variable) SetUserDefaultFromString(text string) bool {
	parsed, ok := convert.TryFromText(text, v.Type)
	if !ok {
		return false
	}
	v.hasUserDefault = true
	v.userDefault = parsed
	return true
}

func (v *Variable) ClearUserDefault() {
	v.hasUserDefault = false
	v.userDefault = nil
}

func (v *Variable) HasUserDefault() bool {
	return v.hasUserDefault
}

func (v *Variable) UserDefault() any {
	return v.userDefault
}

// UserDefaultText renders the user default the way it would be typed back in.
func (v *Variable) UserDefaultText() string {
	if !v.hasUserDefault {
		return ""
	}
	tmp := Variable{Type: v.Type, Value: v.userDefault, Format: v.Format}
	return tmp.FormattedValue()
}

// EffectiveDefault returns the user default when set, otherwise the type
// default.
func (v *Variable) EffectiveDefault() any {
	if v.hasUserDefault {
		return v.userDefault
	}
	return v.Type.Default()
}

// Clone returns a copy whose list value is not shared with v.
func (v *Variable) Clone() *Variable {
	c := *v
	if list, ok := v.Value.([]any); ok {
		c.Value = append([]any(nil), list...)
		if c.Value == nil {
			c.Value = []any{}
		}
	}
	return &c
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s (%s) = %s", v.Name, v.Type, v.FormattedValue())
}
