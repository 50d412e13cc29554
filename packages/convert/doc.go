// Package convert turns JSON nodes, text and Go values into typed variable
// values and back into JSON text.
//
// Conversion never fails: input that cannot be represented in the target type
// yields the type's default value. Array types convert element by element and
// a bare scalar presented for an array type becomes a one-element list.
//
// Typed values are represented as bool, int64, float64, string, time.Time and
// []any for arrays.
package convert
