// Package cmd implements the hitplate CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the cases of .hit.yaml files
//   - validate: Parse templates and criteria without sending requests
//   - list: Show the cases of case files
//   - build: Print the requests a file would send
//   - eval: Evaluate criteria against variables given on the command line
//   - bench: Run cases repeatedly and report latency percentiles
//   - defaults: Manage stored variable defaults
//   - init: Create a new hitplate project with example files
//   - version: Show hitplate version information
//   - completion: Generate shell completion scripts
//
// Exit codes are listed in exitcodes.go.
package cmd
