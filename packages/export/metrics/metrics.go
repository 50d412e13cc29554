// Package metrics exports run and bench results in the Prometheus text
// exposition format, for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
)

// CaseMetrics is one executed or skipped case.
type CaseMetrics struct {
	Name       string
	File       string
	StatusCode int // 0 when no response arrived
	Duration   time.Duration
	Passed     bool
	Skipped    bool
}

// Aggregate sums up every recorded case of a run.
type Aggregate struct {
	Total       int64
	Passed      int64
	Failed      int64
	Skipped     int64
	Duration    time.Duration
	StatusCodes map[int]int64
	Cases       []*CaseMetrics
}

// Collector collects case metrics across the files of a run.
type Collector struct {
	aggregate *Aggregate
}

func NewCollector() *Collector {
	return &Collector{
		aggregate: &Aggregate{StatusCodes: make(map[int]int64)},
	}
}

func (c *Collector) Record(m *CaseMetrics) {
	a := c.aggregate
	a.Total++
	a.Cases = append(a.Cases, m)
	switch {
	case m.Skipped:
		a.Skipped++
		return
	case m.Passed:
		a.Passed++
	default:
		a.Failed++
	}
	if m.StatusCode > 0 {
		a.StatusCodes[m.StatusCode]++
	}
}

// RecordFile records every case of a file result and adds its duration.
func (c *Collector) RecordFile(r *suite.FileResult) {
	c.aggregate.Duration += r.Duration
	for _, cr := range r.Results {
		m := &CaseMetrics{
			Name:     cr.Name,
			File:     r.File,
			Duration: cr.Duration,
			Passed:   cr.Passed(),
			Skipped:  cr.Skipped,
		}
		if cr.Result != nil {
			m.StatusCode = cr.Result.StatusCode
		}
		c.Record(m)
	}
}

func (c *Collector) Aggregate() *Aggregate {
	return c.aggregate
}
