package stress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/env"
	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
)

// ErrNoCases is returned by Load when every case is skipped or reserved for
// setup and teardown.
var ErrNoCases = errors.New("no cases to bench")

const progressInterval = 500 * time.Millisecond

// Runner repeats the cases of a file one after another and measures them.
type Runner struct {
	config    *Config
	options   *suite.Options
	resolver  *env.Resolver
	reporter  *Reporter
	metrics   *Metrics
	scheduler *Scheduler
	version   string

	file     string
	setup    []*suite.Case
	teardown []*suite.Case
}

type RunnerOption func(*Runner)

// WithSuiteOptions sets how each iteration prepares its runner.
func WithSuiteOptions(opts *suite.Options) RunnerOption {
	return func(r *Runner) {
		r.options = opts
	}
}

func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

func WithVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.version = version
	}
}

func NewRunner(cfg *Config, opts ...RunnerOption) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Runner{
		config:    cfg,
		metrics:   NewMetrics(),
		scheduler: NewScheduler(cfg.Rate),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.options == nil {
		r.options = &suite.Options{}
	}
	r.resolver = r.options.Resolver
	if r.resolver == nil {
		r.resolver = env.NewResolver()
	}
	if r.reporter == nil {
		r.reporter = NewReporter()
	}
	return r
}

// LoadFile reads the cases of path, see Load.
func (r *Runner) LoadFile(path string) error {
	cases, err := suite.Load(path)
	if err != nil {
		return err
	}
	return r.Load(path, cases)
}

// Load sorts cases into setup, teardown and benched ones. Cases with a skip
// reason or bench.skip set are left out, as are benched cases rejected by the
// suite options filters.
func (r *Runner) Load(file string, cases []*suite.Case) error {
	r.file = file
	for _, c := range cases {
		b := c.Bench
		switch {
		case c.Skip != "" || (b != nil && b.Skip):
		case b != nil && b.Setup:
			r.setup = append(r.setup, c)
		case b != nil && b.Teardown:
			r.teardown = append(r.teardown, c)
		case !r.options.Matches(c):
		default:
			r.scheduler.Add(c)
		}
	}
	if r.scheduler.Len() == 0 {
		return fmt.Errorf("%s: %w", file, ErrNoCases)
	}
	return nil
}

// Result is the outcome of a bench run. Without thresholds it passes when
// every iteration passed.
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

func (r *Result) HasThresholdFailures() bool {
	for _, tr := range r.Thresholds {
		if !tr.Passed {
			return true
		}
	}
	return false
}

// Run executes setup cases once, then the benched cases until the count or
// duration is reached, then teardown cases. A failing setup case aborts the
// run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bench config: %w", err)
	}
	if r.scheduler.Len() == 0 {
		return nil, ErrNoCases
	}

	r.reporter.Header(r.version, r.file, r.config)

	for _, c := range r.setup {
		cr := suite.RunCase(ctx, c, r.resolver, r.options)
		if !cr.Passed() {
			return nil, fmt.Errorf("setup case %q failed: %s", cr.Name, describe(cr))
		}
	}

	if err := r.waitForServices(ctx); err != nil {
		return nil, err
	}

	for i := 0; i < r.config.Warmup; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.iterate(ctx, r.scheduler.Next())
	}

	r.measure(ctx)

	for _, c := range r.teardown {
		cr := suite.RunCase(context.Background(), c, r.resolver, r.options)
		if !cr.Passed() {
			r.reporter.Error("teardown case %q failed: %s", cr.Name, describe(cr))
		}
	}

	summary := r.metrics.Summary()
	result := &Result{Summary: summary}
	if r.config.Thresholds.HasThresholds() {
		result.Thresholds = summary.Evaluate(r.config.Thresholds)
		result.Passed = !result.HasThresholdFailures()
	} else {
		result.Passed = summary.Failed == 0 && summary.Errors == 0
	}

	r.reporter.Summary(summary, result.Thresholds)
	return result, nil
}

func (r *Runner) measure(ctx context.Context) {
	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.metrics.Start()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go r.progressLoop(done, stopped)

	for n := 0; r.config.Count == 0 || n < r.config.Count; n++ {
		if err := r.scheduler.Wait(ctx); err != nil {
			break
		}
		c := r.scheduler.Next()
		d, outcome := r.iterate(ctx, c)
		if ctx.Err() != nil {
			// cut off by the deadline
			break
		}
		r.metrics.Record(c.DisplayName(), d, outcome)
	}

	r.metrics.Stop()
	close(done)
	<-stopped
	r.reporter.ClearProgress()
}

// iterate runs c once and captures its response variables.
func (r *Runner) iterate(ctx context.Context, c *suite.Case) (time.Duration, Outcome) {
	start := time.Now()
	tr, err := suite.Prepare(c, r.resolver, r.options)
	if err != nil {
		return time.Since(start), OutcomeError
	}

	res := tr.Execute(ctx)
	r.resolver.Capture(c.DisplayName(), tr.Registry())

	switch {
	case res.Response == nil || res.Response.Error != "":
		return res.Duration, OutcomeError
	case res.Success:
		return res.Duration, OutcomePassed
	default:
		return res.Duration, OutcomeFailed
	}
}

func (r *Runner) waitForServices(ctx context.Context) error {
	for _, c := range r.scheduler.cases {
		if c.WaitFor == nil {
			continue
		}
		tr, err := suite.Prepare(c, r.resolver, r.options)
		if err != nil {
			return err
		}
		if err := tr.WaitForService(ctx, c.RunnerWaitFor(r.resolver)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) progressLoop(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.reporter.Progress(r.metrics.Summary(), r.config)
		}
	}
}

func describe(cr *suite.CaseResult) string {
	switch {
	case cr.Error != nil:
		return cr.Error.Error()
	case cr.Result != nil && cr.Result.Error != "":
		return cr.Result.Error
	default:
		return "criteria not satisfied"
	}
}
