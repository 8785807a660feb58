// Package session persists host graphs between production applications.
//
// A [Session] is a named host graph plus the log of rules applied to it, so
// a rewriting run can be driven one step at a time from the CLI or the HTTP
// API. Sessions are saved through a [Store], with implementations for
// different backends:
//   - memory: in-process storage for the API server and tests
//   - file: JSON files for CLI usage
//   - redis: shared storage for multi-instance API deployments
//   - mongo: durable document storage
//
// # Usage
//
//	store, err := session.NewFileStore("")  // Uses $XDG_DATA_HOME/graphprod/sessions/
//	sess, err := session.New("demo", host)
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, "demo")
//	res, err := sess.Apply(rule)
//	store.Set(ctx, sess)
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	pkgio "github.com/matzehuels/graphprod/pkg/io"
	"github.com/matzehuels/graphprod/pkg/production"
	"github.com/matzehuels/graphprod/pkg/stats"
)

// Session is a named host graph under rewriting.
type Session struct {
	ID        string
	Name      string
	Graph     *graph.Graph
	Steps     []Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Step records one successful production application.
type Step struct {
	Rule        string    `json:"rule" bson:"rule"`
	Target      string    `json:"target" bson:"target"`
	TargetID    int       `json:"target_id" bson:"target_id"`
	Inserted    int       `json:"inserted" bson:"inserted"`
	Reconnected int       `json:"reconnected" bson:"reconnected"`
	Dropped     int       `json:"dropped" bson:"dropped"`
	Vertices    int       `json:"vertices" bson:"vertices"`
	Edges       int       `json:"edges" bson:"edges"`
	AppliedAt   time.Time `json:"applied_at" bson:"applied_at"`
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by name.
	// Returns an error with code NOT_FOUND if the session doesn't exist.
	Get(ctx context.Context, name string) (*Session, error)

	// Set stores a session, replacing any session with the same name.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored sessions in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend connections.
	Close() error
}

// New creates a session holding g under name. The graph must be canonical
// so that the first application can rely on contiguous identifiers.
func New(name string, g *graph.Graph) (*Session, error) {
	if err := errors.ValidateGraphName(name); err != nil {
		return nil, err
	}
	if g == nil || g.VertexCount() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyGraph, "session %s: host graph is empty", name)
	}
	if !g.IsContiguous() {
		return nil, errors.Wrap(errors.ErrCodeNotContiguous, graph.ErrNotContiguous, "session %s", name)
	}

	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Graph:     g,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply rewrites the session's graph with r and appends a step on success.
// On error the graph and step log are unchanged.
func (s *Session) Apply(r *production.Rule) (*production.Result, error) {
	res, err := r.Apply(s.Graph)
	if err != nil {
		return nil, err
	}
	name := r.Name
	if name == "" {
		name = r.Target
	}
	now := time.Now().UTC()
	s.Steps = append(s.Steps, Step{
		Rule:        name,
		Target:      r.Target,
		TargetID:    res.Target,
		Inserted:    len(res.Inserted),
		Reconnected: res.Reconnected(),
		Dropped:     res.Dropped(),
		Vertices:    res.Stats.Vertices,
		Edges:       res.Stats.Edges,
		AppliedAt:   now,
	})
	s.UpdatedAt = now
	return res, nil
}

// Stats computes the statistics of the session's current graph.
func (s *Session) Stats() (stats.Statistics, error) {
	return stats.Compute(s.Graph)
}

// record is the serialized form shared by every backend.
type record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Graph     json.RawMessage `json:"graph"`
	Steps     []Step          `json:"steps"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Session) toRecord() (*record, error) {
	data, err := pkgio.MarshalGraph(s.Graph)
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return &record{
		ID:        s.ID,
		Name:      s.Name,
		Graph:     data,
		Steps:     s.Steps,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func (rec *record) toSession() (*Session, error) {
	g, err := pkgio.UnmarshalGraph(rec.Graph)
	if err != nil {
		return nil, fmt.Errorf("decode graph of session %s: %w", rec.Name, err)
	}
	return &Session{
		ID:        rec.ID,
		Name:      rec.Name,
		Graph:     g,
		Steps:     rec.Steps,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// MarshalJSON encodes the session with its graph in node-link form.
func (s *Session) MarshalJSON() ([]byte, error) {
	rec, err := s.toRecord()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a session written by MarshalJSON.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	out, err := rec.toSession()
	if err != nil {
		return err
	}
	*s = *out
	return nil
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "session %q not found", name)
}
