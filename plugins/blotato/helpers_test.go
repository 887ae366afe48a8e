package blotato

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sflowg/blotato/runtime"
	"github.com/sflowg/blotato/runtime/plugin"
	"github.com/stretchr/testify/require"
)

// recordedRequest is what the fake Blotato API saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	APIKey string
	Body   map[string]any
}

// fakeAPI serves canned answers keyed by "METHOD /path" and records requests.
type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]fakeRoute
	requests []recordedRequest
}

type fakeRoute struct {
	status  int
	body    any
	headers map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t, routes: make(map[string]fakeRoute)}
}

func (f *fakeAPI) on(method, path string, status int, body any) *fakeAPI {
	f.routes[method+" "+path] = fakeRoute{status: status, body: body}
	return f
}

func (f *fakeAPI) onWithHeaders(method, path string, status int, body any, headers map[string]string) *fakeAPI {
	f.routes[method+" "+path] = fakeRoute{status: status, body: body, headers: headers}
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  map[string]string{},
		APIKey: r.Header.Get(apiKeyHeader),
	}
	for k, v := range r.URL.Query() {
		rec.Query[k] = v[0]
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Body); err != nil {
			f.t.Errorf("request body is not a JSON object: %v", err)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	route, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no route"}`))
		return
	}
	for k, v := range route.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.status)
	if route.body != nil {
		_ = json.NewEncoder(w).Encode(route.body)
	}
}

func (f *fakeAPI) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeAPI) last() recordedRequest {
	calls := f.calls()
	require.NotEmpty(f.t, calls, "no request reached the fake API")
	return calls[len(calls)-1]
}

// newTestPlugin initializes a plugin against api with the given config overrides.
func newTestPlugin(t *testing.T, api *fakeAPI, overrides map[string]any) (*BlotatoPlugin, *plugin.Execution) {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	raw := map[string]any{
		"api_key":  "test-key",
		"base_url": srv.URL,
		"timeout":  "5s",
	}
	for k, v := range overrides {
		raw[k] = v
	}

	p := &BlotatoPlugin{}
	require.NoError(t, runtime.InitializeConfig(&p.Config, raw))

	exec := runtime.NewTaskExecution(context.Background(), runtime.NewContainer())
	require.NoError(t, p.Initialize(exec))
	t.Cleanup(func() { _ = p.Shutdown(exec) })
	return p, exec
}

func errorType(t *testing.T, err error) string {
	t.Helper()
	var taskErr *plugin.TaskError
	require.ErrorAs(t, err, &taskErr)
	return taskErr.GetType()
}
