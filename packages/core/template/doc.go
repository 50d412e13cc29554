// Package template parses request and response templates.
//
// A template is plain HTTP message text with typed placeholders of the form
// @TYPE(name) or @TYPE(name:format). Parsing registers one variable per
// placeholder in a registry.Registry and records where each placeholder lives:
//   - URL and header placeholders are substituted literally at build time
//   - Request body placeholders become JSON pointers or array element slots
//   - Response header placeholders become regex capture mappings
//   - Response body placeholders become pointer or array projection mappings
//
// Supported type keywords are Bool, Int, Number, Float, String and DateTime,
// plus the array spellings Array<T> and T[]. A missing keyword means String.
package template
