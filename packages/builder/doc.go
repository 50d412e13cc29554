// Package builder materializes request templates into concrete requests.
//
// URL and header placeholders are replaced literally with each variable's
// formatted value. JSON bodies are rebuilt on the parsed template tree:
// array blocks are regenerated from their sample element, broadcasting
// scalar and single-element values across the length set by the other
// array-typed slots, and plain placeholders are replaced by their typed JSON
// value. Templates without body metadata fall back to marker substitution in
// the body text.
package builder
