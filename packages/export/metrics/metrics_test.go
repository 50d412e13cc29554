package metrics

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/abdul-hamid-achik/hitplate/packages/stress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileResult() *suite.FileResult {
	return &suite.FileResult{
		File:     "users.hit.yaml",
		Duration: 1500 * time.Millisecond,
		Results: []*suite.CaseResult{
			{Name: "create", Duration: 250 * time.Millisecond, Result: &runner.TestResult{Success: true, StatusCode: 201}},
			{Name: `say "hi"`, Duration: time.Second, Result: &runner.TestResult{StatusCode: 500}},
			{Name: "broken", Error: errors.New("binding id: unknown variable")},
			{Name: "later", Skipped: true, SkipReason: "not ready"},
		},
	}
}

func TestCollectorRecordFile(t *testing.T) {
	c := NewCollector()
	c.RecordFile(fileResult())
	a := c.Aggregate()

	assert.Equal(t, int64(4), a.Total)
	assert.Equal(t, int64(1), a.Passed)
	assert.Equal(t, int64(2), a.Failed)
	assert.Equal(t, int64(1), a.Skipped)
	assert.Equal(t, 1500*time.Millisecond, a.Duration)
	assert.Equal(t, map[int]int64{201: 1, 500: 1}, a.StatusCodes)
	require.Len(t, a.Cases, 4)
	assert.Equal(t, "users.hit.yaml", a.Cases[0].File)
}

func TestWriteRun(t *testing.T) {
	c := NewCollector()
	c.RecordFile(fileResult())

	var buf bytes.Buffer
	require.NoError(t, WriteRun(&buf, c.Aggregate(), time.Unix(1700000000, 0)))
	out := buf.String()

	assert.Contains(t, out, "# TYPE hitplate_cases_total gauge\n")
	assert.Contains(t, out, `hitplate_cases_total{result="passed"} 1`+"\n")
	assert.Contains(t, out, `hitplate_cases_total{result="failed"} 2`+"\n")
	assert.Contains(t, out, `hitplate_cases_total{result="skipped"} 1`+"\n")
	assert.Contains(t, out, "hitplate_run_duration_seconds 1.5\n")
	assert.Contains(t, out, "hitplate_last_run_timestamp_seconds 1700000000\n")
	assert.Contains(t, out, `hitplate_responses_by_status{status="201"} 1`+"\n")
	assert.Contains(t, out, `hitplate_case_passed{file="users.hit.yaml",case="create"} 1`+"\n")
	assert.Contains(t, out, `hitplate_case_passed{file="users.hit.yaml",case="say \"hi\""} 0`+"\n")
	assert.Contains(t, out, `hitplate_case_duration_seconds{file="users.hit.yaml",case="create"} 0.25`+"\n")
	assert.NotContains(t, out, `case="later"`)
}

func TestWriteBench(t *testing.T) {
	s := &stress.Summary{
		Iterations: 10,
		Passed:     8,
		Failed:     1,
		Errors:     1,
		RPS:        20,
		Latency:    stress.Latency{P50: 10 * time.Millisecond, P95: 50 * time.Millisecond, P99: 90 * time.Millisecond, Max: 100 * time.Millisecond},
		Cases: []*stress.CaseSummary{
			{Name: "list", Iterations: 10, Latency: stress.Latency{P50: 10 * time.Millisecond}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBench(&buf, "api.hit.yaml", s))
	out := buf.String()

	assert.Contains(t, out, `hitplate_bench_iterations_total{file="api.hit.yaml",outcome="passed"} 8`)
	assert.Contains(t, out, `hitplate_bench_iterations_total{file="api.hit.yaml",outcome="error"} 1`)
	assert.Contains(t, out, `hitplate_bench_iterations_per_second{file="api.hit.yaml"} 20`)
	assert.Contains(t, out, `hitplate_bench_latency_seconds{file="api.hit.yaml",quantile="0.95"} 0.05`)
	assert.Contains(t, out, `hitplate_bench_latency_seconds{file="api.hit.yaml",quantile="1"} 0.1`)
	assert.Contains(t, out, `hitplate_bench_latency_seconds{file="api.hit.yaml",case="list",quantile="0.5"} 0.01`)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hitplate.prom")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	err = WriteFile(path, func(io.Writer) error { return errors.New("boom") })
	assert.ErrorContains(t, err, "boom")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0", formatValue(0))
	assert.Equal(t, "10", formatValue(10))
	assert.Equal(t, "0.25", formatValue(0.25))
	assert.Equal(t, "1700000000", formatValue(1700000000))
}
