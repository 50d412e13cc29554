// Package runner executes a single hitplate test: a request template, a
// response template and optional success criteria sharing one registry.
//
// It provides functionality for:
//   - Loading and validating templates and criteria
//   - Building the request and sending it to the base URL
//   - Extracting response values back into the registry
//   - Deciding success from the criteria or the response status
//   - Formatting responses for reports
//   - Polling a readiness URL before the test runs
//
// A Runner owns its registry and template parser, so ids and variables never
// leak between runners.
package runner
