// Package capture extracts values from HTTP responses into the variable registry.
//
// It supports capturing values from:
//   - Response headers, through the capture patterns of a response template
//   - Response body, through JSON pointers and array projections
//   - Response status code, always stored in $StatusCode
//
// Failed captures never stop the extraction: the affected variable falls back
// to its user default, else to the default of its type.
package capture
