package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/stress"
)

// Prefix starts every exported metric name.
const Prefix = "hitplate_"

// exposition accumulates metric families. Samples carry no timestamps,
// which the textfile collector rejects.
type exposition struct {
	buf bytes.Buffer
}

func (e *exposition) family(name, kind, help string) {
	if e.buf.Len() > 0 {
		e.buf.WriteByte('\n')
	}
	fmt.Fprintf(&e.buf, "# HELP %s%s %s\n", Prefix, name, help)
	fmt.Fprintf(&e.buf, "# TYPE %s%s %s\n", Prefix, name, kind)
}

// sample writes one sample. labels alternate names and values.
func (e *exposition) sample(name string, value float64, labels ...string) {
	e.buf.WriteString(Prefix + name)
	if len(labels) > 0 {
		e.buf.WriteByte('{')
		for i := 0; i+1 < len(labels); i += 2 {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			fmt.Fprintf(&e.buf, "%s=\"%s\"", labels[i], sanitizeLabel(labels[i+1]))
		}
		e.buf.WriteByte('}')
	}
	fmt.Fprintf(&e.buf, " %s\n", formatValue(value))
}

func (e *exposition) writeTo(w io.Writer) error {
	_, err := w.Write(e.buf.Bytes())
	return err
}

// WriteRun writes the metrics of a run finished at now.
func WriteRun(w io.Writer, a *Aggregate, now time.Time) error {
	var e exposition

	e.family("cases_total", "gauge", "Cases by result in the last run")
	e.sample("cases_total", float64(a.Passed), "result", "passed")
	e.sample("cases_total", float64(a.Failed), "result", "failed")
	e.sample("cases_total", float64(a.Skipped), "result", "skipped")

	e.family("run_duration_seconds", "gauge", "Wall time of the last run")
	e.sample("run_duration_seconds", a.Duration.Seconds())

	e.family("last_run_timestamp_seconds", "gauge", "Unix time the last run finished")
	e.sample("last_run_timestamp_seconds", float64(now.Unix()))

	if len(a.StatusCodes) > 0 {
		e.family("responses_by_status", "gauge", "Responses by HTTP status code in the last run")
		codes := make([]int, 0, len(a.StatusCodes))
		for code := range a.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			e.sample("responses_by_status", float64(a.StatusCodes[code]), "status", fmt.Sprint(code))
		}
	}

	var ran []*CaseMetrics
	for _, m := range a.Cases {
		if !m.Skipped {
			ran = append(ran, m)
		}
	}
	if len(ran) > 0 {
		e.family("case_passed", "gauge", "1 when the case passed in the last run")
		for _, m := range ran {
			e.sample("case_passed", boolValue(m.Passed), "file", m.File, "case", m.Name)
		}
		e.family("case_duration_seconds", "gauge", "Duration of the case in the last run")
		for _, m := range ran {
			e.sample("case_duration_seconds", m.Duration.Seconds(), "file", m.File, "case", m.Name)
		}
	}
	return e.writeTo(w)
}

// WriteBench writes the metrics of a bench summary.
func WriteBench(w io.Writer, file string, s *stress.Summary) error {
	var e exposition

	e.family("bench_iterations_total", "gauge", "Bench iterations by outcome")
	e.sample("bench_iterations_total", float64(s.Passed), "file", file, "outcome", "passed")
	e.sample("bench_iterations_total", float64(s.Failed), "file", file, "outcome", "failed")
	e.sample("bench_iterations_total", float64(s.Errors), "file", file, "outcome", "error")

	e.family("bench_iterations_per_second", "gauge", "Measured iteration rate")
	e.sample("bench_iterations_per_second", s.RPS, "file", file)

	e.family("bench_latency_seconds", "gauge", "Iteration latency by quantile")
	writeLatency(&e, s.Latency, "file", file)
	for _, c := range s.Cases {
		writeLatency(&e, c.Latency, "file", file, "case", c.Name)
	}
	return e.writeTo(w)
}

func writeLatency(e *exposition, l stress.Latency, labels ...string) {
	quantiles := []struct {
		q string
		d time.Duration
	}{
		{"0.5", l.P50},
		{"0.95", l.P95},
		{"0.99", l.P99},
		{"1", l.Max},
	}
	for _, q := range quantiles {
		e.sample("bench_latency_seconds", q.d.Seconds(), append(append([]string{}, labels...), "quantile", q.q)...)
	}
}

// WriteFile replaces path with what write produces. The content goes to a
// temporary file first so collectors never read a partial file.
func WriteFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func formatValue(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
