// Package criteria implements the success-criteria language used to decide
// whether a test run passed.
//
// An expression combines variable accessors with comparisons and logic:
//
//	$StatusCode = 200 && items.Count > 0 && !(name like '%test%')
//
// Supported features:
//   - Comparisons: =, !=, >, <, >=, <= and like (%x%, x%, %x, exact)
//   - Logic: &&, ||, ! and parentheses
//   - Accessors: variable names, .Count on arrays, [i] indexes
//
// Evaluation never panics. A variable that cannot be resolved makes the
// result fail with a reason, which AND, OR and NOT pass upward.
package criteria
