package stress

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in microseconds between 1µs and one minute.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Outcome classifies one iteration.
type Outcome int

const (
	// OutcomePassed means the case succeeded.
	OutcomePassed Outcome = iota
	// OutcomeFailed means a response arrived but the case did not pass.
	OutcomeFailed
	// OutcomeError means the case could not be prepared or no response arrived.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	default:
		return "error"
	}
}

type counts struct {
	total, passed, failed, errors int64
}

func (c *counts) add(o Outcome) {
	c.total++
	switch o {
	case OutcomePassed:
		c.passed++
	case OutcomeFailed:
		c.failed++
	default:
		c.errors++
	}
}

func (c counts) errorRate() float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.failed+c.errors) / float64(c.total)
}

type caseMetrics struct {
	counts
	histogram *hdrhistogram.Histogram
}

// Metrics collects iteration latencies and outcomes. It is safe for a
// progress reader running alongside the recording loop.
type Metrics struct {
	mu        sync.Mutex
	counts    counts
	histogram *hdrhistogram.Histogram
	cases     map[string]*caseMetrics
	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: newHistogram(),
		cases:     make(map[string]*caseMetrics),
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
}

func (m *Metrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
	m.endTime = time.Time{}
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTime = time.Now()
}

// Record adds one iteration of the named case.
func (m *Metrics) Record(name string, d time.Duration, o Outcome) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.add(o)
	_ = m.histogram.RecordValue(us)

	cm, ok := m.cases[name]
	if !ok {
		cm = &caseMetrics{histogram: newHistogram()}
		m.cases[name] = cm
	}
	cm.add(o)
	_ = cm.histogram.RecordValue(us)
}

// Latency holds the percentiles of a histogram.
type Latency struct {
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

func latencyOf(h *hdrhistogram.Histogram) Latency {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Latency{
		P50:    us(h.ValueAtQuantile(50)),
		P95:    us(h.ValueAtQuantile(95)),
		P99:    us(h.ValueAtQuantile(99)),
		Min:    us(h.Min()),
		Max:    us(h.Max()),
		Mean:   time.Duration(h.Mean() * float64(time.Microsecond)),
		StdDev: time.Duration(h.StdDev() * float64(time.Microsecond)),
	}
}

type Summary struct {
	Duration   time.Duration
	Iterations int64
	Passed     int64
	Failed     int64
	Errors     int64
	RPS        float64
	ErrorRate  float64
	Latency    Latency
	Cases      []*CaseSummary
}

type CaseSummary struct {
	Name       string
	Iterations int64
	Passed     int64
	Failed     int64
	Errors     int64
	Latency    Latency
}

// Summary reports the metrics so far. Cases are sorted by name.
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.endTime
	if end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(m.startTime)

	s := &Summary{
		Duration:   elapsed,
		Iterations: m.counts.total,
		Passed:     m.counts.passed,
		Failed:     m.counts.failed,
		Errors:     m.counts.errors,
		ErrorRate:  m.counts.errorRate(),
		Latency:    latencyOf(m.histogram),
	}
	if elapsed > 0 {
		s.RPS = float64(m.counts.total) / elapsed.Seconds()
	}

	for name, cm := range m.cases {
		s.Cases = append(s.Cases, &CaseSummary{
			Name:       name,
			Iterations: cm.total,
			Passed:     cm.passed,
			Failed:     cm.failed,
			Errors:     cm.errors,
			Latency:    latencyOf(cm.histogram),
		})
	}
	sort.Slice(s.Cases, func(i, j int) bool { return s.Cases[i].Name < s.Cases[j].Name })
	return s
}

// Evaluate checks s against the limits set in t, in a fixed order.
func (s *Summary) Evaluate(t Thresholds) []ThresholdResult {
	var results []ThresholdResult
	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "< " + limit.String(),
				Actual:   actual.String(),
			})
		}
	}
	latency("p50", t.P50, s.Latency.P50)
	latency("p95", t.P95, s.Latency.P95)
	latency("p99", t.P99, s.Latency.P99)
	latency("max latency", t.MaxLatency, s.Latency.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   s.ErrorRate <= t.ErrorRate,
			Expected: "< " + formatPercent(t.ErrorRate),
			Actual:   formatPercent(s.ErrorRate),
		})
	}
	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   s.RPS >= t.MinRPS,
			Expected: "> " + formatFloat(t.MinRPS),
			Actual:   formatFloat(s.RPS),
		})
	}
	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
