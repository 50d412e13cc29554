package suite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/env"
	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createUser = `name: create user
baseUrl: "{{api}}"
request: |
  POST /users
  Content-Type: application/json

  {"name":"@(name)","roles":[{"r":"@String[](roles)"}]}
response: |
  201 Created
  Location: /users/@Int(id)

  {"id":"@Int(id)"}
criteria: $StatusCode = 201 && id > 0
variables:
  name: "{{$randomString(8)}}"
  roles: [admin, dev]
defaults:
  id: -1
tags: [users, smoke]
waitFor:
  url: "{{api}}/health"
  timeout: 2000
`

func TestParse(t *testing.T) {
	cases, err := Parse([]byte(createUser), "users.hit.yaml")
	require.NoError(t, err)
	require.Len(t, cases, 1)

	c := cases[0]
	assert.Equal(t, "create user", c.DisplayName())
	assert.Equal(t, "{{api}}", c.BaseURL)
	assert.Equal(t, Binding(`["admin","dev"]`), c.Variables["roles"])
	assert.Equal(t, Binding("-1"), c.Defaults["id"])
	assert.True(t, c.HasTag("SMOKE"))
	assert.False(t, c.HasTag("orders"))
	require.NotNil(t, c.WaitFor)
	assert.Equal(t, 2000, c.WaitFor.Timeout)
	assert.Contains(t, c.Request, "POST /users\n")
}

func TestParse_MultipleDocuments(t *testing.T) {
	data := "request: GET /a\nresponse: 200 OK\n---\nname: second\nrequest: GET /b\nresponse: 200 OK\n"

	cases, err := Parse([]byte(data), "dir/flow.hit.yaml")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "flow.hit.yaml", cases[0].DisplayName())
	assert.Equal(t, "second", cases[1].DisplayName())
	assert.Equal(t, 1, cases[1].Index)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "missing request", data: "response: 200 OK\n", wantErr: ErrMissingRequest.Error()},
		{name: "missing response", data: "request: GET /\n", wantErr: ErrMissingResponse.Error()},
		{name: "unknown field", data: "request: GET /\nresponse: 200 OK\nassert: x\n", wantErr: "assert"},
		{name: "empty file", data: "", wantErr: "no cases found"},
		{name: "bad yaml", data: "request: [\n", wantErr: "parsing case 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "x.hit.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAndDiscover(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hit.yaml"), []byte(createUser), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.hit.yml"), []byte(createUser), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("x: 1"), 0644))

	files, err := Discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.hit.yaml"), filepath.Join(nested, "b.hit.yml")}, files)

	cases, err := Load(files[0])
	require.NoError(t, err)
	assert.Equal(t, files[0], cases[0].Path)

	_, err = Discover([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
	_, err = Load(filepath.Join(dir, "missing.hit.yaml"))
	assert.Error(t, err)
}

func TestCase_Apply(t *testing.T) {
	cases, err := Parse([]byte(createUser), "users.hit.yaml")
	require.NoError(t, err)

	res := env.NewResolver()
	res.SetVariable("api", "http://localhost:9999")
	r := runner.NewRunner(nil)

	require.NoError(t, cases[0].Apply(r, res))

	assert.Equal(t, "http://localhost:9999", r.BaseURL())
	assert.Equal(t, "$StatusCode = 201 && id > 0", r.Criteria())

	name, ok := r.Registry().Get("name")
	require.True(t, ok)
	assert.Len(t, name.Value, 8)

	roles, _ := r.Registry().Get("roles")
	assert.Equal(t, []any{"admin", "dev"}, roles.Value)

	id, _ := r.Registry().Get("id")
	assert.Equal(t, int64(-1), id.UserDefault())
	assert.True(t, r.Validate().Valid())

	wait := cases[0].RunnerWaitFor(res)
	require.NotNil(t, wait)
	assert.Equal(t, "http://localhost:9999/health", wait.URL)
	assert.Equal(t, 2*time.Second, wait.Timeout)
}

func TestCase_ApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		c       *Case
		wantErr string
	}{
		{
			name:    "bad request template",
			c:       &Case{Request: "POST /x\n\n{\"a\":\"@Decimal(x)\"}", Response: "200 OK"},
			wantErr: "loading request template",
		},
		{
			name:    "bad criteria",
			c:       &Case{Request: "GET /x", Response: "200 OK", Criteria: "a >"},
			wantErr: "loading criteria",
		},
		{
			name:    "unknown variable",
			c:       &Case{Request: "GET /x", Response: "200 OK", Variables: map[string]Binding{"nope": "1"}},
			wantErr: "binding nope",
		},
		{
			name:    "unconvertible binding",
			c:       &Case{Request: "GET /x/@Int(id)", Response: "200 OK", Variables: map[string]Binding{"id": "abc"}},
			wantErr: "cannot convert",
		},
		{
			name:    "unknown default",
			c:       &Case{Request: "GET /x", Response: "200 OK", Defaults: map[string]Binding{"nope": "1"}},
			wantErr: `default for unknown variable "nope"`,
		},
		{
			name:    "invalid default",
			c:       &Case{Request: "GET /x", Response: "200 OK\n\n{\"n\":\"@Int(n)\"}", Defaults: map[string]Binding{"n": "x"}},
			wantErr: "is not a valid Int",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Apply(runner.NewRunner(nil), env.NewResolver())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCase_ApplyAndExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/users/5")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":5}`))
	}))
	defer server.Close()

	cases, err := Parse([]byte(createUser), "users.hit.yaml")
	require.NoError(t, err)
	c := cases[0]
	c.WaitFor = nil

	res := env.NewResolver()
	res.SetVariable("api", server.URL)
	r := runner.NewRunner(nil)
	require.NoError(t, c.Apply(r, res))

	result := r.Execute(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.RequestText, `"roles":[{"r":"admin"},{"r":"dev"}]`)

	res.Capture("create", r.Registry())
	assert.Equal(t, "/users/5", res.Resolve("/users/{{create.id}}"))
}

func TestRunCases(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":7}`))
		case "/users/7":
			_, _ = w.Write([]byte(`{"name":"ann"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	data := `name: create
request: POST /users
response: |
  201 Created

  {"id":"@Int(id)"}
---
name: fetch
request: GET /users/@Int(userId)
response: |
  200 OK

  {"name":"@(name)"}
criteria: name = 'ann'
variables:
  userId: "{{create.id}}"
---
name: skipped
skip: not ready
request: GET /x
response: 200 OK
---
name: missing
tags: [broken]
request: GET /missing
response: 200 OK
`
	cases, err := Parse([]byte(data), "flow.hit.yaml")
	require.NoError(t, err)

	result := RunCases(context.Background(), "flow.hit.yaml", cases, &Options{
		Runner: runner.Config{BaseURL: server.URL},
	})

	require.Len(t, result.Results, 4)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "not ready", result.Results[2].SkipReason)
	mu.Lock()
	assert.Equal(t, []string{"/users", "/users/7", "/missing"}, paths)
	mu.Unlock()
	assert.Contains(t, result.Results[3].Result.Error, "404")
}

func TestRunCases_FiltersAndBail(t *testing.T) {
	data := "name: one\nrequest: GET /@Int(id)\nresponse: 200 OK\nvariables:\n  id: bad\n---\nname: two\ntags: [smoke]\nrequest: GET /\nresponse: 200 OK\n"
	cases, err := Parse([]byte(data), "f.hit.yaml")
	require.NoError(t, err)

	t.Run("bail skips after the first failure", func(t *testing.T) {
		result := RunCases(context.Background(), "f.hit.yaml", cases, &Options{Bail: true})
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Skipped)
		assert.Error(t, result.Results[0].Error)
		assert.Equal(t, "bail after failure", result.Results[1].SkipReason)
	})

	t.Run("tag filter", func(t *testing.T) {
		result := RunCases(context.Background(), "f.hit.yaml", cases, &Options{TagsFilter: []string{"nightly"}})
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("name filter", func(t *testing.T) {
		result := RunCases(context.Background(), "f.hit.yaml", cases, &Options{NameFilter: "ON"})
		assert.Equal(t, "filtered out", result.Results[1].SkipReason)
		assert.Equal(t, 1, result.Failed)
	})
}

func TestPrepare_StoredDefaults(t *testing.T) {
	c := &Case{
		Request:  "GET /x",
		Response: "200 OK\n\n{\"a\":\"@Int(a)\",\"b\":\"@Int(b)\",\"c\":\"@Int(c)\"}",
		Defaults: map[string]Binding{"A": "1"},
	}

	var warnings []string
	r, err := Prepare(c, env.NewResolver(), &Options{
		Defaults: map[string]string{"a": "9", "b": "2", "c": "x"},
		WarnFunc: func(format string, args ...any) { warnings = append(warnings, format) },
	})
	require.NoError(t, err)

	a, _ := r.Registry().Get("a")
	b, _ := r.Registry().Get("b")
	cv, _ := r.Registry().Get("c")
	assert.Equal(t, int64(1), a.UserDefault())
	assert.Equal(t, int64(2), b.UserDefault())
	assert.False(t, cv.HasUserDefault())
	assert.Len(t, warnings, 1)
}
