// Package builtin provides generator functions for binding case variables.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(format): Current UTC time, RFC 3339 or a template date format
//   - date(days, format): Current UTC date shifted by days, yyyy-MM-dd by default
//   - timestamp(), timestampMs(): Current Unix time
//   - random(min, max): Random integer in range
//   - randomString(length), randomEmail(): Random text
//   - base64(value), base64Decode(value), sha256(value), urlEncode(value)
//   - list(a, b, ...), repeat(value, n), range(start, end): JSON arrays for
//     array-typed variables
//
// Functions are invoked using the {{$functionName(args)}} syntax in case files.
package builtin
