package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/mattn/go-isatty"
)

// Formatter renders the results of case files.
type Formatter interface {
	FormatResult(result *suite.FileResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that write everything at the end.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "tap", "junit"}

// New returns the formatter called name writing to w. The console formatter
// drops colors unless w is a terminal.
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor || !IsTerminal(w))), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %s)", name, strings.Join(Formats, ", "))
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// failureMessage is the first line explaining why a case did not pass.
func failureMessage(r *suite.CaseResult) string {
	switch {
	case r.Error != nil:
		return r.Error.Error()
	case r.Result == nil:
		return ""
	case r.Result.Error != "":
		return r.Result.Error
	case r.Result.CriteriaResult != nil && !*r.Result.CriteriaResult:
		return "criteria not satisfied"
	default:
		return ""
	}
}

// criteriaLines returns the resolution lines of the criteria detail.
func criteriaLines(r *suite.CaseResult) []string {
	if r.Result == nil || r.Result.CriteriaDetail == "" {
		return nil
	}
	lines := strings.Split(r.Result.CriteriaDetail, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines[1:] {
		out = append(out, strings.TrimSpace(l))
	}
	return out
}
