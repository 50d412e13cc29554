package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Errors   []string    `json:"errors,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONTest represents a single case result
type JSONTest struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	File       string         `json:"file"`
	Passed     bool           `json:"passed"`
	Skipped    bool           `json:"skipped,omitempty"`
	SkipReason string         `json:"skipReason,omitempty"`
	Duration   float64        `json:"duration"`
	Error      string         `json:"error,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
	Request    string         `json:"request,omitempty"`
	Response   string         `json:"response,omitempty"`
	Criteria   *JSONCriteria  `json:"criteria,omitempty"`
	Variables  []JSONVariable `json:"variables,omitempty"`
}

type JSONCriteria struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// JSONVariable carries the value as JSON so typed values survive
type JSONVariable struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Source string          `json:"source"`
	Value  json.RawMessage `json:"value"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
	errors  []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *suite.FileResult) {
	for _, r := range result.Results {
		test := JSONTest{
			Name:     r.Name,
			File:     result.File,
			Passed:   r.Passed(),
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
			Error:    failureMessage(r),
		}
		if r.SkipReason != "filtered out" {
			test.SkipReason = r.SkipReason
		}

		if res := r.Result; res != nil {
			test.ID = res.ID
			test.StatusCode = res.StatusCode
			test.Request = res.RequestText
			test.Response = res.ResponseText
			if res.CriteriaResult != nil {
				test.Criteria = &JSONCriteria{Passed: *res.CriteriaResult, Detail: res.CriteriaDetail}
			}
			for _, v := range res.Variables {
				test.Variables = append(test.Variables, JSONVariable{
					Name:   v.Name,
					Type:   v.Type.String(),
					Source: v.Source.String(),
					Value:  json.RawMessage(convert.ToJSONText(v.Value, v.Type)),
				})
			}
		}

		f.results = append(f.results, test)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, t := range f.results {
		switch {
		case t.Skipped:
			skipped++
		case t.Passed:
			passed++
		default:
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Tests:    f.results,
		Errors:   f.errors,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
