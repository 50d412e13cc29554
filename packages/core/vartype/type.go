package vartype

import (
	"fmt"
	"strings"
	"time"
)

type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindDateTime:
		return "DateTime"
	default:
		return "Unknown"
	}
}

// Type is a scalar kind, optionally wrapped as an array of that kind.
type Type struct {
	kind  Kind
	array bool
}

var (
	Bool     = Scalar(KindBool)
	Int      = Scalar(KindInt)
	Float    = Scalar(KindFloat)
	String   = Scalar(KindString)
	DateTime = Scalar(KindDateTime)
)

func Scalar(kind Kind) Type {
	return Type{kind: kind}
}

// ArrayOf wraps elem as an array type. Arrays never nest, so wrapping an
// array type returns it unchanged.
func ArrayOf(elem Type) Type {
	return Type{kind: elem.kind, array: true}
}

func (t Type) IsArray() bool {
	return t.array
}

// Kind returns the scalar kind, which for arrays is the element kind.
func (t Type) Kind() Kind {
	return t.kind
}

// Elem returns the element type of an array, or t itself for scalars.
func (t Type) Elem() Type {
	return Type{kind: t.kind}
}

func (t Type) String() string {
	if t.array {
		return "Array<" + t.kind.String() + ">"
	}
	return t.kind.String()
}

// Default returns the zero value for the type: false, 0, 0.0, "", the
// current time, or an empty list for arrays.
func (t Type) Default() any {
	if t.array {
		return []any{}
	}
	switch t.kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindFloat:
		return 0.0
	case KindDateTime:
		return time.Now()
	default:
		return ""
	}
}

// Parse resolves a placeholder type keyword such as "Int", "number",
// "Array<String>" or "Bool[]". An empty keyword means String.
func Parse(keyword string) (Type, error) {
	s := strings.TrimSpace(keyword)
	if s == "" {
		return String, nil
	}

	array := false
	if strings.HasSuffix(s, "[]") {
		array = true
		s = strings.TrimSuffix(s, "[]")
	} else if len(s) > len("Array<>") && strings.EqualFold(s[:6], "Array<") && strings.HasSuffix(s, ">") {
		array = true
		s = s[6 : len(s)-1]
	}

	var kind Kind
	switch strings.ToLower(s) {
	case "bool":
		kind = KindBool
	case "int", "number":
		kind = KindInt
	case "float":
		kind = KindFloat
	case "string":
		kind = KindString
	case "datetime":
		kind = KindDateTime
	default:
		return Type{}, fmt.Errorf("unsupported type %q", keyword)
	}

	if array {
		return ArrayOf(Scalar(kind)), nil
	}
	return Scalar(kind), nil
}

// Promote returns the array form of t, leaving array types unchanged.
func Promote(t Type) Type {
	return ArrayOf(t)
}
