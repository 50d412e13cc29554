package template

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTemplate      = errors.New("template is empty")
	ErrMissingRequestLine = errors.New("missing request line")
	ErrMissingStatusLine  = errors.New("missing status line")
	ErrInvalidBody        = errors.New("body is not valid JSON after placeholder substitution")
	ErrNestedArray        = errors.New("nested arrays unsupported")
	ErrEmptyArray         = errors.New("array needs at least one sample element")
	ErrInvalidArrayIndex  = errors.New("invalid array index")
	ErrEmbeddedInArray    = errors.New("placeholder embedded in text inside an array element")
	ErrPlaceholderInKey   = errors.New("placeholder used as an object key")
)

// ParseError reports a fatal template error. Section names the part of the
// template being parsed and Line is 1-based within the template text.
type ParseError struct {
	Section string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s, line %d: %s", e.Section, e.Line, msg)
	}
	return e.Section + ": " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(section string, line int, err error, format string, args ...any) *ParseError {
	return &ParseError{
		Section: section,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
