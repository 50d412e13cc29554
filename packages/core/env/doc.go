// Package env resolves the binding text of case variables.
//
// It provides functionality for:
//   - Loading dotenv files (.env, .env.local, etc.)
//   - Interpolation using {{variable}} syntax
//   - OS environment lookups with {{$NAME}}
//   - Builtin generator calls such as {{$uuid()}}
//   - Values captured from earlier cases, as {{case.variable}} or {{variable}}
package env
