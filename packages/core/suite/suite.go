package suite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/env"
	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// FileSuffixes are the names picked up when a directory is given.
var FileSuffixes = []string{".hit.yaml", ".hit.yml"}

var (
	ErrMissingRequest  = errors.New("request template is required")
	ErrMissingResponse = errors.New("response template is required")
)

// Binding is the text bound to a variable. YAML scalars keep their text;
// sequences and mappings are stored as JSON so array variables can be bound
// with plain YAML lists.
type Binding string

func (b *Binding) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = Binding(node.Value)
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = Binding(data)
	return nil
}

type WaitFor struct {
	URL      string `yaml:"url"`
	Status   int    `yaml:"status"`
	Timeout  int    `yaml:"timeout"`  // milliseconds
	Interval int    `yaml:"interval"` // milliseconds
}

// Bench tunes how a case takes part in bench runs.
type Bench struct {
	Weight   int  `yaml:"weight"`
	Skip     bool `yaml:"skip"`
	Setup    bool `yaml:"setup"`
	Teardown bool `yaml:"teardown"`
}

// Case is one test: the templates, the criteria and the bindings of the
// request variables.
type Case struct {
	Name      string             `yaml:"name"`
	BaseURL   string             `yaml:"baseUrl"`
	Request   string             `yaml:"request"`
	Response  string             `yaml:"response"`
	Criteria  string             `yaml:"criteria"`
	Variables map[string]Binding `yaml:"variables"`
	Defaults  map[string]Binding `yaml:"defaults"`
	WaitFor   *WaitFor           `yaml:"waitFor"`
	Tags      []string           `yaml:"tags"`
	Skip      string             `yaml:"skip"`
	Bench     *Bench             `yaml:"bench"`

	Path  string `yaml:"-"`
	Index int    `yaml:"-"`
}

// DisplayName is the case name, or the file name and position when unnamed.
func (c *Case) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	base := filepath.Base(c.Path)
	if c.Index > 0 {
		return fmt.Sprintf("%s#%d", base, c.Index+1)
	}
	return base
}

func (c *Case) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (c *Case) validate() error {
	if strings.TrimSpace(c.Request) == "" {
		return ErrMissingRequest
	}
	if strings.TrimSpace(c.Response) == "" {
		return ErrMissingResponse
	}
	return nil
}

// Load reads every case of a YAML file. Documents separated by --- are
// separate cases and keep their order.
func Load(path string) ([]*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	return Parse(data, path)
}

func Parse(data []byte, path string) ([]*Case, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cases []*Case
	for {
		c := &Case{}
		err := dec.Decode(c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: parsing case %d: %w", path, len(cases)+1, err)
		}
		c.Path = path
		c.Index = len(cases)
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%s: case %s: %w", path, c.DisplayName(), err)
		}
		cases = append(cases, c)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%s: no cases found", path)
	}
	return cases, nil
}

// Discover expands directories into the case files they contain, searched
// recursively. Files are returned as given.
func Discover(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsCaseFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func IsCaseFile(path string) bool {
	for _, suffix := range FileSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Apply loads the case into r: base URL, templates and criteria, then the
// variable bindings resolved through res, then the declared defaults.
func (c *Case) Apply(r *runner.Runner, res *env.Resolver) error {
	if c.BaseURL != "" {
		r.SetBaseURL(res.Resolve(c.BaseURL))
	}
	if err := r.LoadRequestTemplate(c.Request); err != nil {
		return err
	}
	if err := r.LoadResponseTemplate(c.Response); err != nil {
		return err
	}
	if err := r.LoadCriteria(c.Criteria); err != nil {
		return err
	}

	reg := r.Registry()
	for _, name := range sortedNames(c.Variables) {
		text := res.Resolve(string(c.Variables[name]))
		if _, err := reg.SetFromString(name, text); err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
	}

	for _, name := range sortedNames(c.Defaults) {
		v, ok := reg.Get(name)
		if !ok {
			return fmt.Errorf("default for unknown variable %q", name)
		}
		text := res.Resolve(string(c.Defaults[name]))
		if !v.SetUserDefaultFromString(text) {
			return fmt.Errorf("default %q is not a valid %s for %s", text, v.Type, v.Name)
		}
	}
	return nil
}

// RunnerWaitFor converts the readiness probe for the runner.
func (c *Case) RunnerWaitFor(res *env.Resolver) *runner.WaitFor {
	if c.WaitFor == nil {
		return nil
	}
	return &runner.WaitFor{
		URL:      res.Resolve(c.WaitFor.URL),
		Status:   c.WaitFor.Status,
		Timeout:  time.Duration(c.WaitFor.Timeout) * time.Millisecond,
		Interval: time.Duration(c.WaitFor.Interval) * time.Millisecond,
	}
}

func sortedNames(m map[string]Binding) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
