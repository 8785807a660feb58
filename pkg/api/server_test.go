package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/observability"
	"github.com/matzehuels/graphprod/pkg/session"
)

const hostBody = `{"nodes": [{"id": "p", "label": "a"}, {"id": "q", "label": "b"}],
	"edges": [{"from": "p", "to": "q"}]}`

const applyBody = `{
	"name": "expand",
	"target": "a",
	"replacement": {"nodes": [{"id": 0, "label": "Y"}, {"id": 1, "label": "c"}], "edges": [{"from": 0, "to": 1}]},
	"embedding": {"b": "Y"}
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(session.NewMemoryStore(), log.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode error body %s: %v", data, err)
	}
	return string(body.Error.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, data := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"version":"dev"`) {
		t.Errorf("GET /healthz body = %s", data)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/sessions/demo"

	resp, data := do(t, http.MethodPut, base, hostBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("PUT = %d: %s", resp.StatusCode, data)
	}
	var summary SessionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.ID == "" || summary.Stats.Vertices != 2 {
		t.Errorf("summary = %+v", summary)
	}

	resp, data = do(t, http.MethodPost, base+"/apply", applyBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST apply = %d: %s", resp.StatusCode, data)
	}
	var applied ApplyResponse
	if err := json.Unmarshal(data, &applied); err != nil {
		t.Fatal(err)
	}
	if applied.Step != 1 || applied.Stats.Vertices != 3 || applied.Stats.Edges != 2 {
		t.Errorf("apply response = %+v", applied)
	}
	if len(applied.Dangling) != 1 || applied.Dangling[0].AttachedTo == nil || *applied.Dangling[0].AttachedTo != 0 {
		t.Errorf("dangling = %+v", applied.Dangling)
	}

	resp, data = do(t, http.MethodGet, base+"/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET stats = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(string(data), `{"vertices":3,"edges":2,"components":1`) {
		t.Errorf("stats body = %s", data)
	}

	resp, data = do(t, http.MethodGet, base, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET = %d", resp.StatusCode)
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatal(err)
	}
	if len(sess.Steps) != 1 || sess.Steps[0].Rule != "expand" {
		t.Errorf("steps = %+v", sess.Steps)
	}

	resp, data = do(t, http.MethodGet, srv.URL+"/sessions", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"demo"`) {
		t.Errorf("GET /sessions = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodGet, base+"/render?format=dot", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `[label="Y"]`) {
		t.Errorf("GET render dot = %d %s", resp.StatusCode, data)
	}

	resp, _ = do(t, http.MethodDelete, base, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d", resp.StatusCode)
	}
	resp, data = do(t, http.MethodGet, base, "")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, data) != "NOT_FOUND" {
		t.Errorf("GET after DELETE = %d %s", resp.StatusCode, data)
	}
}

func TestApply_Errors(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/sessions/demo"
	if resp, data := do(t, http.MethodPut, base, hostBody); resp.StatusCode != http.StatusCreated {
		t.Fatalf("PUT = %d: %s", resp.StatusCode, data)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "unmapped label",
			body:   `{"target": "a", "replacement": {"nodes": [{"id": 0, "label": "Y"}]}, "embedding": {}}`,
			status: http.StatusUnprocessableEntity,
			code:   "UNMAPPED_LABEL",
		},
		{
			name:   "label not found",
			body:   `{"target": "zzz", "replacement": {"nodes": [{"id": 0, "label": "Y"}]}, "embedding": {}}`,
			status: http.StatusUnprocessableEntity,
			code:   "LABEL_NOT_FOUND",
		},
		{
			name:   "missing replacement",
			body:   `{"target": "a"}`,
			status: http.StatusBadRequest,
			code:   "INVALID_RULE",
		},
		{
			name:   "unknown field",
			body:   `{"target": "a", "bogus": 1}`,
			status: http.StatusBadRequest,
			code:   "INVALID_FORMAT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, base+"/apply", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, data)
			}
			if got := errorCode(t, data); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}

	// Failed applications leave the session untouched.
	_, data := do(t, http.MethodGet, base+"/stats", "")
	if !strings.HasPrefix(string(data), `{"vertices":2,`) {
		t.Errorf("stats after failures = %s", data)
	}
}

func TestPut_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodPut, srv.URL+"/sessions/bad..name", hostBody)
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, data) != "INVALID_NAME" {
		t.Errorf("bad name = %d %s", resp.StatusCode, data)
	}
	resp, data = do(t, http.MethodPut, srv.URL+"/sessions/empty", `{"nodes": []}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || errorCode(t, data) != "EMPTY_GRAPH" {
		t.Errorf("empty graph = %d %s", resp.StatusCode, data)
	}
	resp, data = do(t, http.MethodPut, srv.URL+"/sessions/dup", `{"nodes": [{"id": "x"}, {"id": "x"}]}`)
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, data) != "INVALID_GRAPH" {
		t.Errorf("duplicate node = %d %s", resp.StatusCode, data)
	}
}

func TestCanonicalizeAndStats(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodPost, srv.URL+"/canonicalize",
		`{"nodes": [{"id": "z", "label": "q"}, {"id": 9, "label": "r"}], "edges": [{"from": 9, "to": "z"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /canonicalize = %d %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), `"id": 1`) || strings.Contains(string(data), `"id": 9`) {
		t.Errorf("canonical graph = %s", data)
	}

	resp, data = do(t, http.MethodPost, srv.URL+"/stats", hostBody)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"avg_degree_by_label":{"a":1,"b":1}`) {
		t.Errorf("POST /stats = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodPost, srv.URL+"/stats", `{"nodes": []}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || errorCode(t, data) != "EMPTY_GRAPH" {
		t.Errorf("POST /stats empty = %d %s", resp.StatusCode, data)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"NOT_FOUND":       http.StatusNotFound,
		"INVALID_RULE":    http.StatusBadRequest,
		"UNMAPPED_LABEL":  http.StatusUnprocessableEntity,
		"INTERNAL_ERROR":  http.StatusInternalServerError,
		"SOMETHING_ELSE":  http.StatusInternalServerError,
		"UNSUPPORTED":     http.StatusNotImplemented,
		"LABEL_NOT_FOUND": http.StatusUnprocessableEntity,
	}
	for code, want := range tests {
		if got := statusFor(errors.Code(code)); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

type routeRecorder struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *routeRecorder) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestHTTPHooks(t *testing.T) {
	rec := &routeRecorder{}
	observability.SetHTTPHooks(rec)
	t.Cleanup(observability.Reset)

	srv := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/sessions/demo", hostBody)
	do(t, http.MethodGet, srv.URL+"/sessions/missing/stats", "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.routes) != 2 {
		t.Fatalf("routes = %q", rec.routes)
	}
	if !strings.HasPrefix(rec.routes[0], "PUT /sessions/{name}") || !strings.HasSuffix(rec.routes[0], "Created") {
		t.Errorf("routes[0] = %q", rec.routes[0])
	}
	if rec.routes[1] != "GET /sessions/{name}/stats Not Found" {
		t.Errorf("routes[1] = %q", rec.routes[1])
	}
}
