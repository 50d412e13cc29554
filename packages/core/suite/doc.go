// Package suite reads hitplate case files.
//
// A case file is YAML holding one or more cases separated by ---. Each case
// carries a request template, a response template, optional success
// criteria, variable bindings and user defaults:
//
//	name: create user
//	request: |
//	  POST /users
//
//	  {"name":"@(name)"}
//	response: |
//	  201 Created
//
//	  {"id":"@Int(id)"}
//	criteria: id > 0
//	variables:
//	  name: "{{$randomString(8)}}"
//
// Binding text is expanded by env.Resolver before it is parsed with the type
// of its variable.
package suite
