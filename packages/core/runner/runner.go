package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/builder"
	"github.com/abdul-hamid-achik/hitplate/packages/capture"
	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/template"
	"github.com/abdul-hamid-achik/hitplate/packages/criteria"
	"github.com/abdul-hamid-achik/hitplate/packages/http"
	"github.com/abdul-hamid-achik/hitplate/packages/jsontree"
	"github.com/google/uuid"
)

// WarnFunc receives non-fatal problems found while parsing and extracting.
type WarnFunc func(format string, args ...any)

// LogFunc receives progress lines when Config.Verbose is set.
type LogFunc func(format string, args ...any)

type Config struct {
	BaseURL        string
	Verbose        bool
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	ValidateSSL    *bool
	Proxy          string
	Headers        map[string]string
}

// Runner owns one registry and the templates and criteria of a single test.
// It is not safe for concurrent use.
type Runner struct {
	client    *http.Client
	registry  *registry.Registry
	parser    *template.Parser
	builder   *builder.Builder
	extractor *capture.Extractor
	config    *Config
	warnFunc  WarnFunc
	logFunc   LogFunc

	baseURL      string
	request      *template.RequestTemplate
	response     *template.ResponseTemplate
	criteria     *criteria.Node
	criteriaText string
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	clientOpts := []http.ClientOption{}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	clientOpts = append(clientOpts, http.WithFollowRedirects(cfg.FollowRedirect))
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.ValidateSSL != nil {
		clientOpts = append(clientOpts, http.WithValidateSSL(*cfg.ValidateSSL))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.Headers))
	}

	reg := registry.New()
	return &Runner{
		client:    http.NewClient(clientOpts...),
		registry:  reg,
		parser:    template.NewParser(reg),
		builder:   builder.New(reg),
		extractor: capture.NewExtractor(reg),
		config:    cfg,
		baseURL:   strings.TrimSpace(cfg.BaseURL),
	}
}

// SetWarnFunc routes parser and extractor warnings to fn.
func (r *Runner) SetWarnFunc(fn WarnFunc) {
	r.warnFunc = fn
	r.parser.SetWarnFunc(template.WarnFunc(fn))
	r.extractor.SetWarnFunc(capture.WarnFunc(fn))
}

func (r *Runner) SetLogFunc(fn LogFunc) {
	r.logFunc = fn
}

func (r *Runner) Registry() *registry.Registry {
	return r.registry
}

func (r *Runner) Client() *http.Client {
	return r.client
}

func (r *Runner) SetBaseURL(url string) {
	r.baseURL = strings.TrimSpace(url)
}

func (r *Runner) BaseURL() string {
	return r.baseURL
}

func (r *Runner) RequestTemplate() *template.RequestTemplate {
	return r.request
}

func (r *Runner) ResponseTemplate() *template.ResponseTemplate {
	return r.response
}

func (r *Runner) Criteria() string {
	return r.criteriaText
}

// LoadRequestTemplate parses text and registers its variables. The previous
// request template is kept when parsing fails.
func (r *Runner) LoadRequestTemplate(text string) error {
	tmpl, err := r.parser.ParseRequest(text)
	if err != nil {
		return fmt.Errorf("loading request template: %w", err)
	}
	r.request = tmpl
	r.logf("loaded request template %s %s (%d placeholders)", tmpl.Method, tmpl.URL, len(tmpl.Expressions))
	return nil
}

func (r *Runner) LoadResponseTemplate(text string) error {
	tmpl, err := r.parser.ParseResponse(text)
	if err != nil {
		return fmt.Errorf("loading response template: %w", err)
	}
	r.response = tmpl
	r.logf("loaded response template %d (%d header, %d body mappings)",
		tmpl.ExpectedStatus, len(tmpl.HeaderMappings), len(tmpl.BodyMappings))
	return nil
}

// LoadCriteria parses the success criteria. Blank text clears them, so
// success falls back to the response status.
func (r *Runner) LoadCriteria(text string) error {
	if strings.TrimSpace(text) == "" {
		r.criteria = nil
		r.criteriaText = ""
		return nil
	}
	node, err := criteria.Parse(text)
	if err != nil {
		return fmt.Errorf("loading criteria: %w", err)
	}
	r.criteria = node
	r.criteriaText = strings.TrimSpace(text)
	return nil
}

// Validation lists the reasons a test cannot run yet.
type Validation struct {
	Errors []string
}

func (v *Validation) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validation) Error() string {
	return strings.Join(v.Errors, "; ")
}

func (v *Validation) add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks that both templates and the base URL are present and that
// every request variable has a value.
func (r *Runner) Validate() *Validation {
	v := &Validation{}
	if r.request == nil {
		v.add("request template is not loaded")
	}
	if r.response == nil {
		v.add("response template is not loaded")
	}
	if r.baseURL == "" {
		v.add("base URL is not set")
	} else if err := http.ValidateURL(r.baseURL); err != nil {
		v.add("base URL is invalid: %v", err)
	}
	if unset := r.registry.UnsetVariableNames(); len(unset) > 0 {
		v.add("request variables without a value: %s", strings.Join(unset, ", "))
	}
	return v
}

// BuildRequest materializes the request template without sending it.
func (r *Runner) BuildRequest() (*builder.Request, error) {
	if r.request == nil {
		return nil, builder.ErrNilTemplate
	}
	req, err := r.builder.Build(r.request)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return req, nil
}

// TestResult is the outcome of one Execute call.
type TestResult struct {
	ID             string
	Success        bool
	StatusCode     int
	RequestText    string
	ResponseText   string
	Response       *http.Response
	Variables      []*registry.Variable
	Changes        []registry.Change
	CriteriaResult *bool
	CriteriaDetail string
	Error          string
	ExecutedAt     time.Time
	Duration       time.Duration
}

// Execute validates, builds and sends the request, then extracts the
// response into the registry and decides success. Problems are reported in
// the result rather than returned.
func (r *Runner) Execute(ctx context.Context) *TestResult {
	start := time.Now()
	result := &TestResult{
		ID:         uuid.New().String(),
		ExecutedAt: start,
	}
	defer func() {
		result.Duration = time.Since(start)
	}()

	if v := r.Validate(); !v.Valid() {
		result.Error = v.Error()
		return result
	}

	req, err := r.BuildRequest()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.RequestText = req.Text
	r.logf("sending %s %s", req.Method, http.JoinURL(r.baseURL, req.Path))

	resp := r.client.Send(ctx, r.baseURL, req.Method, req.Path, req.HeaderMap(), req.Body)
	result.Response = resp
	result.StatusCode = resp.StatusCode
	result.ResponseText = r.FormatResponse(resp)

	if !r.accepted(resp) {
		if resp.Error != "" {
			result.Error = resp.Error
		} else {
			result.Error = fmt.Sprintf("unexpected status %d %s", resp.StatusCode, resp.Status)
		}
		return result
	}

	result.Changes = r.extractor.Extract(r.response, resp)
	result.Variables = r.registry.Sorted()

	if r.criteria == nil {
		result.Success = resp.IsSuccess() || r.expectedStatus(resp)
		return result
	}

	verdict := criteria.NewEvaluator(r.registry).Evaluate(r.criteria)
	passed := verdict.Passed()
	result.CriteriaResult = &passed
	result.CriteriaDetail = verdict.Detail()
	result.Success = passed
	if verdict.Failed() {
		result.Error = verdict.Reason
	}
	return result
}

// accepted reports whether the response is worth extracting: it arrived and
// is either 2xx or the status the response template expects.
func (r *Runner) accepted(resp *http.Response) bool {
	if resp.Error != "" {
		return false
	}
	return resp.IsSuccess() || r.expectedStatus(resp)
}

func (r *Runner) expectedStatus(resp *http.Response) bool {
	return r.response != nil && r.response.ExpectedStatus == resp.StatusCode
}

// FormatResponse renders the status line, the headers, the body with JSON
// re-indented and any transport error.
func (r *Runner) FormatResponse(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %s\n\n", resp.StatusCode, resp.Status)

	if len(resp.Headers) > 0 {
		sb.WriteString("Headers:\n")
		for _, name := range sortedHeaderNames(resp.Headers) {
			for _, value := range resp.Headers[name] {
				fmt.Fprintf(&sb, " %s: %s\n", name, value)
			}
		}
		sb.WriteString("\n")
	}

	if body := resp.BodyString(); strings.TrimSpace(body) != "" {
		sb.WriteString(jsontree.Pretty(body))
		sb.WriteString("\n")
	}

	if resp.Error != "" {
		fmt.Fprintf(&sb, "\nError: %s\n", resp.Error)
	}
	return sb.String()
}

// ValidateResponse checks resp against the loaded response template: the
// status must match and a body must be present when body mappings exist.
func (r *Runner) ValidateResponse(resp *http.Response) *Validation {
	v := &Validation{}
	if r.response == nil {
		v.add("response template is not loaded")
		return v
	}
	if resp == nil {
		v.add("no response")
		return v
	}
	if r.response.ExpectedStatus != 0 && resp.StatusCode != r.response.ExpectedStatus {
		v.add("expected status %d but got %d", r.response.ExpectedStatus, resp.StatusCode)
	}
	if len(r.response.BodyMappings) > 0 && strings.TrimSpace(resp.BodyString()) == "" {
		v.add("response body is empty but %d body mappings are defined", len(r.response.BodyMappings))
	}
	return v
}

// Reset drops the templates and criteria and empties the registry.
func (r *Runner) Reset() {
	r.request = nil
	r.response = nil
	r.criteria = nil
	r.criteriaText = ""
	r.registry.Clear()
}

func (r *Runner) logf(format string, args ...any) {
	if r.config.Verbose && r.logFunc != nil {
		r.logFunc(format, args...)
	}
}

func sortedHeaderNames(headers map[string][]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
