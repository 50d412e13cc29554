package cmd

import "strconv"

// Exit codes for the hitplate CLI
const (
	// ExitSuccess indicates all cases passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more cases failed
	ExitTestFailure = 1

	// ExitParseError indicates a case file, template or criteria error
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code a command wants. A nil err exits
// silently, the command already reported why.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}
