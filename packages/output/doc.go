// Package output renders the results of case files.
//
// Formats, chosen by name through New:
//   - console: colored text with the variables each case captured
//   - json: one document with typed variable values, written at the end
//   - junit: JUnit XML for CI, one testsuite per case file
//   - tap: Test Anything Protocol version 13
//
// Formatters that can only write once every file has run implement
// Flushable.
package output
