package stress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter prints bench progress and the final summary.
type Reporter struct {
	writer     io.Writer
	noColor    bool
	noProgress bool
	verbose    bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithNoProgress disables the live progress line.
func WithNoProgress(noProgress bool) ReporterOption {
	return func(r *Reporter) {
		r.noProgress = noProgress
	}
}

// WithVerbose adds the per-case breakdown to the summary.
func WithVerbose(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{writer: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}

	if r.noColor {
		color.NoColor = true
	}
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	return r
}

func (r *Reporter) Header(version, file string, cfg *Config) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintf(r.writer, "hitplate bench %s\n", version)
	r.cyan.Fprintf(r.writer, "Benchmarking: %s\n", file)

	var details []string
	if cfg.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %s/s", formatFloat(cfg.Rate)))
	} else {
		details = append(details, "Rate: unpaced")
	}
	if cfg.Count > 0 {
		details = append(details, fmt.Sprintf("Count: %d", cfg.Count))
	}
	if cfg.Duration > 0 {
		details = append(details, fmt.Sprintf("Duration: %s", formatDuration(cfg.Duration)))
	}
	if cfg.Warmup > 0 {
		details = append(details, fmt.Sprintf("Warmup: %d", cfg.Warmup))
	}
	fmt.Fprintf(r.writer, "%s\n\n", strings.Join(details, " | "))
}

// Progress rewrites the current line with the running totals.
func (r *Reporter) Progress(s *Summary, cfg *Config) {
	if r.noProgress {
		return
	}
	fmt.Fprint(r.writer, "\r\033[K")

	if cfg.Count > 0 {
		fmt.Fprintf(r.writer, "%d/%d", s.Iterations, cfg.Count)
	} else {
		fmt.Fprintf(r.writer, "%s/%s", formatDuration(s.Duration), formatDuration(cfg.Duration))
	}
	fmt.Fprintf(r.writer, " | %.1f it/s | ", s.RPS)
	if n := s.Failed + s.Errors; n > 0 {
		r.red.Fprintf(r.writer, "%d failed", n)
	} else {
		r.green.Fprintf(r.writer, "0 failed")
	}
	fmt.Fprintf(r.writer, " | p50 %s p95 %s p99 %s",
		formatLatency(s.Latency.P50), formatLatency(s.Latency.P95), formatLatency(s.Latency.P99))
}

func (r *Reporter) ClearProgress() {
	if r.noProgress {
		return
	}
	fmt.Fprint(r.writer, "\r\033[K")
}

func (r *Reporter) Summary(s *Summary, thresholds []ThresholdResult) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "BENCH SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:    %s\n", formatDuration(s.Duration))
	fmt.Fprintf(r.writer, "Iterations:  %s (%.1f it/s)\n", formatNumber(s.Iterations), s.RPS)
	fmt.Fprintf(r.writer, "Passed:      %s\n", r.green.Sprint(formatNumber(s.Passed)))
	r.count("Failed:      ", s.Failed, r.red)
	r.count("Errors:      ", s.Errors, r.red)

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(s.Latency.P50),
		formatLatencyMs(s.Latency.P95),
		formatLatencyMs(s.Latency.P99),
		formatLatencyMs(s.Latency.Max))
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(s.Latency.Min),
		formatLatencyMs(s.Latency.Mean),
		formatLatencyMs(s.Latency.StdDev))

	if r.verbose && len(s.Cases) > 1 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "PER CASE")
		for _, c := range s.Cases {
			fmt.Fprintf(r.writer, "  %s: %d iterations, %d passed | p50 %s p95 %s p99 %s\n",
				c.Name, c.Iterations, c.Passed,
				formatLatency(c.Latency.P50), formatLatency(c.Latency.P95), formatLatency(c.Latency.P99))
		}
	}

	if len(thresholds) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		for _, tr := range thresholds {
			if tr.Passed {
				r.green.Fprint(r.writer, "  ✓ ")
			} else {
				r.red.Fprint(r.writer, "  ✗ ")
			}
			fmt.Fprintf(r.writer, "%s %s (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}
	}
	fmt.Fprintln(r.writer)
}

func (r *Reporter) count(label string, n int64, c *color.Color) {
	fmt.Fprint(r.writer, label)
	if n > 0 {
		c.Fprintln(r.writer, formatNumber(n))
		return
	}
	fmt.Fprintln(r.writer, formatNumber(n))
}

type jsonLatency struct {
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

type jsonCase struct {
	Name       string      `json:"name"`
	Iterations int64       `json:"iterations"`
	Passed     int64       `json:"passed"`
	Failed     int64       `json:"failed"`
	Errors     int64       `json:"errors"`
	Latency    jsonLatency `json:"latencyMs"`
}

type jsonThreshold struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type jsonSummary struct {
	Duration   float64         `json:"durationMs"`
	Iterations int64           `json:"iterations"`
	Passed     int64           `json:"passed"`
	Failed     int64           `json:"failed"`
	Errors     int64           `json:"errors"`
	RPS        float64         `json:"rps"`
	ErrorRate  float64         `json:"errorRate"`
	Latency    jsonLatency     `json:"latencyMs"`
	Cases      []jsonCase      `json:"cases,omitempty"`
	Thresholds []jsonThreshold `json:"thresholds,omitempty"`
}

func toJSONLatency(l Latency) jsonLatency {
	return jsonLatency{
		P50:    ms(l.P50),
		P95:    ms(l.P95),
		P99:    ms(l.P99),
		Min:    ms(l.Min),
		Max:    ms(l.Max),
		Mean:   ms(l.Mean),
		StdDev: ms(l.StdDev),
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// JSONSummary writes the summary as indented JSON.
func (r *Reporter) JSONSummary(s *Summary, thresholds []ThresholdResult) error {
	out := jsonSummary{
		Duration:   ms(s.Duration),
		Iterations: s.Iterations,
		Passed:     s.Passed,
		Failed:     s.Failed,
		Errors:     s.Errors,
		RPS:        s.RPS,
		ErrorRate:  s.ErrorRate,
		Latency:    toJSONLatency(s.Latency),
	}
	for _, c := range s.Cases {
		out.Cases = append(out.Cases, jsonCase{
			Name:       c.Name,
			Iterations: c.Iterations,
			Passed:     c.Passed,
			Failed:     c.Failed,
			Errors:     c.Errors,
			Latency:    toJSONLatency(c.Latency),
		})
	}
	for _, tr := range thresholds {
		out.Thresholds = append(out.Thresholds, jsonThreshold(tr))
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (r *Reporter) Error(format string, args ...any) {
	r.red.Fprintf(r.writer, "Error: "+format+"\n", args...)
}

func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.writer, format+"\n", args...)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatency(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

func formatLatencyMs(d time.Duration) string {
	v := ms(d)
	switch {
	case v < 1:
		return fmt.Sprintf("%.2f", v)
	case v < 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
