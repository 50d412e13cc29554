package suite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/env"
	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"github.com/abdul-hamid-achik/hitplate/packages/defaults"
)

// Options controls how the cases of a file are run.
type Options struct {
	Runner     runner.Config
	Resolver   *env.Resolver
	Defaults   map[string]string // stored user defaults, see defaults.Store.Load
	NameFilter string
	TagsFilter []string
	Bail       bool
	WarnFunc   runner.WarnFunc
	LogFunc    runner.LogFunc
}

// CaseResult is the outcome of one case. Error is set when the case could
// not be loaded; Result is nil then.
type CaseResult struct {
	Name       string
	Skipped    bool
	SkipReason string
	Result     *runner.TestResult
	Error      error
	Duration   time.Duration
}

func (c *CaseResult) Passed() bool {
	return !c.Skipped && c.Error == nil && c.Result != nil && c.Result.Success
}

type FileResult struct {
	File     string
	Results  []*CaseResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

func (f *FileResult) add(r *CaseResult) {
	f.Results = append(f.Results, r)
	switch {
	case r.Skipped:
		f.Skipped++
	case r.Passed():
		f.Passed++
	default:
		f.Failed++
	}
}

// RunFile loads path and runs its cases in order. Response values of every
// case are captured into the resolver so later cases can bind them.
func RunFile(ctx context.Context, path string, opts *Options) (*FileResult, error) {
	cases, err := Load(path)
	if err != nil {
		return nil, err
	}
	return RunCases(ctx, path, cases, opts), nil
}

func RunCases(ctx context.Context, path string, cases []*Case, opts *Options) *FileResult {
	if opts == nil {
		opts = &Options{}
	}
	res := opts.Resolver
	if res == nil {
		res = env.NewResolver()
	}

	start := time.Now()
	result := &FileResult{File: path}
	failed := false

	for _, c := range cases {
		if reason, skip := opts.skipReason(c, failed); skip {
			result.add(&CaseResult{Name: c.DisplayName(), Skipped: true, SkipReason: reason})
			continue
		}

		cr := RunCase(ctx, c, res, opts)
		result.add(cr)
		if !cr.Passed() {
			failed = true
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (o *Options) skipReason(c *Case, failed bool) (string, bool) {
	if failed && o.Bail {
		return "bail after failure", true
	}
	if c.Skip != "" {
		return c.Skip, true
	}
	if !o.Matches(c) {
		return "filtered out", true
	}
	return "", false
}

// Matches reports whether c passes the name and tag filters.
func (o *Options) Matches(c *Case) bool {
	if o.NameFilter != "" && !strings.Contains(strings.ToLower(c.DisplayName()), strings.ToLower(o.NameFilter)) {
		return false
	}
	if len(o.TagsFilter) == 0 {
		return true
	}
	for _, tag := range o.TagsFilter {
		if c.HasTag(tag) {
			return true
		}
	}
	return false
}

// RunCase prepares a fresh runner for c, executes it and captures its
// response variables into res.
func RunCase(ctx context.Context, c *Case, res *env.Resolver, opts *Options) *CaseResult {
	start := time.Now()
	cr := &CaseResult{Name: c.DisplayName()}
	defer func() {
		cr.Duration = time.Since(start)
	}()

	r, err := Prepare(c, res, opts)
	if err != nil {
		cr.Error = err
		return cr
	}

	if err := r.WaitForService(ctx, c.RunnerWaitFor(res)); err != nil {
		cr.Error = err
		return cr
	}

	cr.Result = r.Execute(ctx)
	res.Capture(c.DisplayName(), r.Registry())
	return cr
}

// Prepare builds a runner loaded with c. Stored defaults apply to variables
// the case declares no default for.
func Prepare(c *Case, res *env.Resolver, opts *Options) (*runner.Runner, error) {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Runner
	r := runner.NewRunner(&cfg)
	if opts.WarnFunc != nil {
		r.SetWarnFunc(opts.WarnFunc)
	}
	if opts.LogFunc != nil {
		r.SetLogFunc(opts.LogFunc)
	}

	if err := c.Apply(r, res); err != nil {
		return nil, fmt.Errorf("%s: %w", c.DisplayName(), err)
	}

	if len(opts.Defaults) > 0 {
		stored := make(map[string]string, len(opts.Defaults))
		for name, value := range opts.Defaults {
			if !c.declaresDefault(name) {
				stored[name] = value
			}
		}
		for _, name := range defaults.ApplyValues(r.Registry(), stored) {
			if opts.WarnFunc != nil {
				opts.WarnFunc("stored default %q for %s does not fit its type", stored[name], name)
			}
		}
	}
	return r, nil
}

func (c *Case) declaresDefault(name string) bool {
	for declared := range c.Defaults {
		if strings.EqualFold(declared, name) {
			return true
		}
	}
	return false
}
