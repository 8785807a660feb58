package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphprod/pkg/cache"
	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/observability"
	"github.com/matzehuels/graphprod/pkg/production"
)

// memCache is a map-backed cache for observing hits.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

// fixture writes a host graph, a replacement and a rule into a temp dir.
func fixture(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"A.dot": `graph A { x [label="a"]; y [label="b"]; x -- y; }`,
		"B.json": `{"nodes": [{"id": "y", "label": "Y"}, {"id": "c", "label": "c"}],
		            "edges": [{"from": "y", "to": "c"}]}`,
		"expand.toml": "target = \"a\"\nreplacement = \"B.json\"\n[embedding]\nb = \"Y\"\n",
		"again.toml":  "name = \"again\"\ntarget = \"a\"\nreplacement = \"B.json\"\n[embedding]\nb = \"Y\"\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := (&Options{}).Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty input error = %v, want INVALID_INPUT", err)
	}
	if err := (&Options{Input: "a.json", Formats: []string{"gif"}}).Validate(); err == nil {
		t.Error("invalid format should fail")
	}
	if err := (&Options{Input: "a.json", Rules: []string{""}}).Validate(); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("empty rule path error = %v, want INVALID_PATH", err)
	}
}

func TestExecute(t *testing.T) {
	dir := fixture(t)
	r := quietRunner(newMemCache())

	res, err := r.Execute(context.Background(), Options{
		Input:   filepath.Join(dir, "A.dot"),
		Rules:   []string{filepath.Join(dir, "expand.toml")},
		Formats: []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(res.Steps) != 1 || res.Steps[0].Rule.Name != "expand" {
		t.Fatalf("Steps = %+v", res.Steps)
	}
	if res.Stats.Vertices != 3 || res.Stats.Edges != 2 || res.Stats.Components != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.LoadHit {
		t.Error("first load should miss the cache")
	}
	if !bytes.Contains(res.Artifacts[FormatJSON], []byte(`"label": "Y"`)) {
		t.Errorf("json artifact = %s", res.Artifacts[FormatJSON])
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "graph G {") {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}
	if len(res.GraphHash) != 64 {
		t.Errorf("GraphHash = %q", res.GraphHash)
	}
}

func TestExecute_CachesLoad(t *testing.T) {
	dir := fixture(t)
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Input: filepath.Join(dir, "A.dot")}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LoadHit {
		t.Error("second load should hit the cache")
	}
	if !second.Graph.Equal(first.Graph) {
		t.Error("cached graph differs from parsed graph")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LoadHit {
		t.Error("Refresh should bypass cache reads")
	}
}

func TestExecute_StopsAtFailingRule(t *testing.T) {
	dir := fixture(t)
	r := quietRunner(nil)

	_, err := r.Execute(context.Background(), Options{
		Input: filepath.Join(dir, "A.dot"),
		Rules: []string{filepath.Join(dir, "expand.toml"), filepath.Join(dir, "again.toml")},
	})
	if !errors.Is(err, errors.ErrCodeLabelNotFound) {
		t.Fatalf("Execute() error = %v, want LABEL_NOT_FOUND", err)
	}
	if !strings.Contains(err.Error(), "step 2 (again)") {
		t.Errorf("error should name the failing step: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := fixture(t)
	r := quietRunner(nil)
	ctx := context.Background()

	if _, err := r.Load(ctx, filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := r.Load(ctx, filepath.Join(dir, "expand.toml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load(.toml) error = %v, want INVALID_FORMAT", err)
	}
}

func TestApply_ContextCanceled(t *testing.T) {
	dir := fixture(t)
	r := quietRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())

	g, err := r.Load(ctx, filepath.Join(dir, "A.dot"))
	if err != nil {
		t.Fatal(err)
	}
	rule, err := r.LoadRule(ctx, filepath.Join(dir, "expand.toml"))
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	steps, err := r.Apply(ctx, g, []*production.Rule{rule})
	if err != context.Canceled || len(steps) != 0 {
		t.Errorf("Apply() = %d steps, err %v; want 0, context.Canceled", len(steps), err)
	}
	if g.VertexCount() != 2 {
		t.Error("canceled Apply should not touch the graph")
	}
}

func TestRender_SVGCached(t *testing.T) {
	dir := fixture(t)
	r := quietRunner(newMemCache())
	ctx := context.Background()

	g, err := r.Load(ctx, filepath.Join(dir, "A.dot"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Formats: []string{FormatSVG}}

	out, hit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatalf("RenderWithCacheInfo() error = %v", err)
	}
	if hit {
		t.Error("first render should miss")
	}
	if !bytes.Contains(out[FormatSVG], []byte("<svg")) {
		t.Errorf("svg artifact = %.80s", out[FormatSVG])
	}

	again, hit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || !bytes.Equal(again[FormatSVG], out[FormatSVG]) {
		t.Error("second render should come from cache")
	}
}

// recordingHooks counts pipeline and cache events.
type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu      sync.Mutex
	loads   []string
	applied []string
	dropped int
	hits    int
	misses  int
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, path string, _ int, _ bool, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads = append(h.loads, filepath.Base(path))
}

func (h *recordingHooks) OnApplyComplete(_ context.Context, rule string, dropped int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.applied = append(h.applied, rule)
		h.dropped += dropped
	}
}

func (h *recordingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *recordingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func TestExecute_EmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	dir := fixture(t)
	r := quietRunner(newMemCache())
	opts := Options{
		Input: filepath.Join(dir, "A.dot"),
		Rules: []string{filepath.Join(dir, "expand.toml")},
	}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if got := strings.Join(hooks.loads, ","); got != "A.dot,B.json,A.dot,B.json" {
		t.Errorf("loads = %s", got)
	}
	if got := strings.Join(hooks.applied, ","); got != "expand,expand" {
		t.Errorf("applied = %s", got)
	}
	if hooks.misses != 2 || hooks.hits != 2 {
		t.Errorf("cache misses/hits = %d/%d, want 2/2", hooks.misses, hooks.hits)
	}
}

func TestExecute_Examples(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "basic")
	r := quietRunner(nil)

	tests := []struct {
		rules           []string
		vertices, edges int
	}{
		{[]string{"produce.toml"}, 7, 6},
		{[]string{"produce.toml", "grow.toml"}, 8, 7},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.rules, "+"), func(t *testing.T) {
			opts := Options{Input: filepath.Join(dir, "A.dot")}
			for _, rule := range tt.rules {
				opts.Rules = append(opts.Rules, filepath.Join(dir, rule))
			}
			res, err := r.Execute(context.Background(), opts)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Stats.Vertices != tt.vertices || res.Stats.Edges != tt.edges || res.Stats.Components != 1 {
				t.Errorf("Stats = %+v", res.Stats)
			}
			for _, st := range res.Steps {
				if st.Result.Dropped() != 0 {
					t.Errorf("%s dropped %d edges", st.Rule.Name, st.Result.Dropped())
				}
			}
		})
	}
}
