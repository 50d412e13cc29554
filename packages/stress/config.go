package stress

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config controls a bench run. Iterations are sequential; Rate only paces
// them. The run ends when Count iterations are done or Duration elapsed,
// whichever comes first. Zero means no limit for either, but one of them
// must be set.
type Config struct {
	Duration   time.Duration
	Count      int
	Rate       float64 // iterations per second, 0 runs back to back
	Warmup     int     // iterations run before recording starts
	Thresholds Thresholds
}

// Thresholds are the pass/fail limits of a bench run. Zero disables a limit.
type Thresholds struct {
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	MaxLatency time.Duration
	ErrorRate  float64 // 0.0 to 1.0
	MinRPS     float64
}

func DefaultConfig() *Config {
	return &Config{
		Duration: 10 * time.Second,
		Rate:     10,
	}
}

func (c *Config) Validate() error {
	if c.Duration < 0 {
		return errors.New("duration cannot be negative")
	}
	if c.Count < 0 {
		return errors.New("count cannot be negative")
	}
	if c.Duration == 0 && c.Count == 0 {
		return errors.New("either duration or count must be set")
	}
	if c.Rate < 0 {
		return errors.New("rate cannot be negative")
	}
	if c.Warmup < 0 {
		return errors.New("warmup cannot be negative")
	}
	return nil
}

var thresholdPattern = regexp.MustCompile(`^(\w+)\s*([<>]=?)\s*(.+)$`)

// ParseThresholds parses a list such as "p95<200ms,errors<1%,rps>50".
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := thresholdPattern.FindStringSubmatch(part)
		if m == nil {
			return t, fmt.Errorf("invalid threshold format: %s", part)
		}
		if err := t.set(strings.ToLower(m[1]), m[2], strings.TrimSpace(m[3])); err != nil {
			return t, fmt.Errorf("threshold %s: %w", part, err)
		}
	}
	return t, nil
}

func (t *Thresholds) set(metric, op, value string) error {
	upper := op == "<" || op == "<="
	switch metric {
	case "p50", "p95", "p99", "max", "maxlatency":
		if !upper {
			return errors.New("latency limits must use < or <=")
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q", value)
		}
		switch metric {
		case "p50":
			t.P50 = d
		case "p95":
			t.P95 = d
		case "p99":
			t.P99 = d
		default:
			t.MaxLatency = d
		}
	case "errors", "error", "errorrate":
		if !upper {
			return errors.New("error rate must use < or <=")
		}
		percent := strings.HasSuffix(value, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid error rate %q", value)
		}
		if percent {
			f /= 100
		}
		t.ErrorRate = f
	case "rps", "rate":
		if upper {
			return errors.New("rps must use > or >=")
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rps %q", value)
		}
		t.MinRPS = f
	default:
		return fmt.Errorf("unknown metric %s", metric)
	}
	return nil
}

func (t *Thresholds) HasThresholds() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.MaxLatency > 0 || t.ErrorRate > 0 || t.MinRPS > 0
}

type ThresholdResult struct {
	Name     string
	Passed   bool
	Expected string
	Actual   string
}
