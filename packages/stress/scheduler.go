package stress

import (
	"context"
	"math/rand"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"golang.org/x/time/rate"
)

// Scheduler paces iterations and picks the case each one runs.
type Scheduler struct {
	limiter     *rate.Limiter
	cases       []*suite.Case
	weights     []int
	totalWeight int
}

// NewScheduler paces at perSecond iterations. Zero or less disables pacing.
func NewScheduler(perSecond float64) *Scheduler {
	s := &Scheduler{}
	if perSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return s
}

// Add registers c for selection with its bench weight, 1 when unset.
func (s *Scheduler) Add(c *suite.Case) {
	weight := 1
	if c.Bench != nil && c.Bench.Weight > 0 {
		weight = c.Bench.Weight
	}
	s.cases = append(s.cases, c)
	s.weights = append(s.weights, weight)
	s.totalWeight += weight
}

func (s *Scheduler) Len() int {
	return len(s.cases)
}

// Next picks a case at random in proportion to the weights.
func (s *Scheduler) Next() *suite.Case {
	switch len(s.cases) {
	case 0:
		return nil
	case 1:
		return s.cases[0]
	}
	n := rand.Intn(s.totalWeight)
	for i, w := range s.weights {
		if n < w {
			return s.cases[i]
		}
		n -= w
	}
	return s.cases[len(s.cases)-1]
}

// Wait blocks until the next iteration may start.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}
