// Package registry holds the typed variables of a single test session.
//
// Variables are registered by the template parsers, bound by the user before a
// request is built, and rewritten by the response extractor. Every mutating
// call returns a Change record (old and new value) so callers can refresh
// their view from the returned diff.
package registry
