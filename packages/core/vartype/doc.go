// Package vartype defines the variable type system used by hitplate templates.
//
// A Type is either a scalar kind or an array of a scalar kind:
//   - Bool, Int, Float, String, DateTime scalars
//   - Array<T> (also spelled T[]) wrapping exactly one scalar element type
//
// Types are immutable values and compare with ==.
package vartype
