package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	perrors "github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	"github.com/matzehuels/graphprod/pkg/production"
)

func host() *graph.Graph {
	g := graph.New()
	_ = g.AddVertex(0, "a")
	_ = g.AddVertex(1, "b")
	_ = g.AddEdge(0, 1)
	return g
}

func rule() *production.Rule {
	rhs := graph.New()
	_ = rhs.AddVertex(0, "Y")
	_ = rhs.AddVertex(1, "c")
	_ = rhs.AddEdge(0, 1)
	return &production.Rule{
		Name:        "expand-a",
		Target:      "a",
		Replacement: rhs,
		Embedding:   map[string]string{"b": "Y"},
	}
}

func TestNew(t *testing.T) {
	sess, err := New("demo", host())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sess.ID == "" || sess.Name != "demo" {
		t.Errorf("New() = id %q name %q", sess.ID, sess.Name)
	}
	if !sess.CreatedAt.Equal(sess.UpdatedAt) {
		t.Error("CreatedAt and UpdatedAt should match for a new session")
	}

	other, _ := New("demo", host())
	if other.ID == sess.ID {
		t.Error("session IDs should be unique")
	}
}

func TestNew_Errors(t *testing.T) {
	gap := graph.New()
	_ = gap.AddVertex(0, "a")
	_ = gap.AddVertex(2, "b")

	tests := []struct {
		name  string
		sname string
		g     *graph.Graph
		code  perrors.Code
	}{
		{"bad name", "../etc", host(), perrors.ErrCodeInvalidName},
		{"empty graph", "ok", graph.New(), perrors.ErrCodeEmptyGraph},
		{"nil graph", "ok", nil, perrors.ErrCodeEmptyGraph},
		{"gap", "ok", gap, perrors.ErrCodeNotContiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.sname, tt.g)
			if !perrors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSession_Apply(t *testing.T) {
	sess, _ := New("demo", host())
	before := sess.UpdatedAt

	time.Sleep(time.Millisecond)
	res, err := sess.Apply(rule())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(sess.Steps) != 1 {
		t.Fatalf("Steps = %d, want 1", len(sess.Steps))
	}
	step := sess.Steps[0]
	if step.Rule != "expand-a" || step.TargetID != 0 || step.Inserted != 2 || step.Reconnected != 1 {
		t.Errorf("step = %+v", step)
	}
	if step.Vertices != res.Stats.Vertices || step.Vertices != 3 {
		t.Errorf("step.Vertices = %d, want 3", step.Vertices)
	}
	if !sess.UpdatedAt.After(before) {
		t.Error("UpdatedAt should advance")
	}

	if _, err := sess.Apply(rule()); !perrors.Is(err, perrors.ErrCodeLabelNotFound) {
		t.Errorf("second Apply() error = %v, want LABEL_NOT_FOUND", err)
	}
	if len(sess.Steps) != 1 {
		t.Error("failed Apply should not record a step")
	}

	s, err := sess.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Vertices != 3 || s.Edges != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestSession_JSON(t *testing.T) {
	sess, _ := New("demo", host())
	_, _ = sess.Apply(rule())

	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var back Session
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if back.ID != sess.ID || back.Name != sess.Name || len(back.Steps) != 1 {
		t.Errorf("round trip = %+v", back)
	}
	if !back.Graph.Equal(sess.Graph) {
		t.Error("graph changed in round trip")
	}
}

// testStore runs the behavior every backend must share.
func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	defer store.Close()

	if _, err := store.Get(ctx, "demo"); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Fatalf("Get(missing) error = %v, want NOT_FOUND", err)
	}

	sess, _ := New("demo", host())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	for _, name := range []string{"alpha", "index"} {
		other, _ := New(name, host())
		if err := store.Set(ctx, other); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}

	got, err := store.Get(ctx, "demo")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got.ID != sess.ID || !got.Graph.Equal(sess.Graph) {
		t.Errorf("Get() = %+v", got)
	}

	// Mutating a fetched session must not affect the store until Set.
	if _, err := got.Apply(rule()); err != nil {
		t.Fatal(err)
	}
	again, _ := store.Get(ctx, "demo")
	if again.Graph.VertexCount() != 2 {
		t.Error("store shares graph with caller")
	}
	if err := store.Set(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ = store.Get(ctx, "demo")
	if again.Graph.VertexCount() != 3 || len(again.Steps) != 1 {
		t.Errorf("updated session = %d vertices, %d steps", again.Graph.VertexCount(), len(again.Steps))
	}

	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if !slices.Equal(names, []string{"alpha", "demo", "index"}) {
		t.Errorf("List() = %v", names)
	}

	if err := store.Delete(ctx, "demo"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if err := store.Delete(ctx, "demo"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if _, err := store.Get(ctx, "demo"); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if store.Path() != dir {
		t.Errorf("Path() = %s, want %s", store.Path(), dir)
	}
	testStore(t, store)

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFileStore_RejectsBadNames(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), "../x"); !perrors.Is(err, perrors.ErrCodeInvalidName) {
		t.Errorf("Get(../x) error = %v, want INVALID_NAME", err)
	}
}

func TestFileStore_DefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	store, err := NewFileStore("")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(os.Getenv("XDG_DATA_HOME"), "graphprod", "sessions")
	if store.Path() != want {
		t.Errorf("Path() = %s, want %s", store.Path(), want)
	}
}

func TestRedisStoreKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s := newRedisStore(client, RedisConfig{})
	if got := s.key("demo"); got != DefaultRedisPrefix+"demo" {
		t.Errorf("key() = %s", got)
	}
	s = newRedisStore(client, RedisConfig{Prefix: "t:"})
	if got := s.indexKey(); got != "t:_index" {
		t.Errorf("indexKey() = %s", got)
	}
	for _, name := range []string{"index", "_index", "Index", "index.json"} {
		if perrors.ValidateGraphName(name) == nil && s.key(name) == s.indexKey() {
			t.Errorf("session %q shares the index key %s", name, s.indexKey())
		}
	}
}

func TestRedisStore_RejectsInvalidName(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	s := newRedisStore(client, RedisConfig{})

	for _, name := range []string{"_index", "", "../x"} {
		err := s.Set(context.Background(), &Session{Name: name})
		if !perrors.Is(err, perrors.ErrCodeInvalidName) {
			t.Errorf("Set(%q) error = %v, want INVALID_NAME", name, err)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: BackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", s)
	}

	s, err = Open(ctx, Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(\"\") = %T, want *FileStore", s)
	}

	if _, err := Open(ctx, Config{Backend: "sqlite"}); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("Open(sqlite) error = %v, want INVALID_INPUT", err)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = time.Second })
	ctx := context.Background()
	errDown := errors.New("connection refused")

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errDown)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want nil after 2", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errDown
	})
	if !errors.Is(err, errDown) || calls != 1 {
		t.Errorf("non-retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errDown)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v after %d calls, want retryable after 3", err, calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := RetryWithBackoff(cctx, func() error { return Retryable(errDown) }); err != context.Canceled {
		t.Errorf("canceled: err = %v", err)
	}
}
