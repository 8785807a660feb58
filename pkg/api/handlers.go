package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	pkgio "github.com/matzehuels/graphprod/pkg/io"
	"github.com/matzehuels/graphprod/pkg/production"
	"github.com/matzehuels/graphprod/pkg/render"
	"github.com/matzehuels/graphprod/pkg/session"
	"github.com/matzehuels/graphprod/pkg/stats"
)

// ApplyRequest is the body of POST /sessions/{name}/apply.
type ApplyRequest struct {
	Name        string            `json:"name,omitempty"`
	Target      string            `json:"target"`
	Replacement json.RawMessage   `json:"replacement"`
	Embedding   map[string]string `json:"embedding"`
}

// ApplyResponse reports a successful application.
type ApplyResponse struct {
	Stats    stats.Statistics `json:"stats"`
	Target   int              `json:"target"`
	Inserted []int            `json:"inserted"`
	Dangling []DanglingEdge   `json:"dangling"`
	Step     int              `json:"step"`
}

// DanglingEdge is the wire form of production.Dangling.
type DanglingEdge struct {
	Neighbor      int    `json:"neighbor"`
	Label         string `json:"label"`
	Destination   string `json:"destination"`
	AttachedTo    *int   `json:"attached_to"`
	InReplacement bool   `json:"in_replacement,omitempty"`
}

// SessionSummary is returned when a session is created.
type SessionSummary struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Stats stats.Statistics `json:"stats"`
}

func (s *Server) handleCanonicalize(w http.ResponseWriter, r *http.Request) {
	g, err := readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := pkgio.MarshalGraph(g)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	g, err := readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := stats.Compute(g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": names})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	g, err := readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := session.New(name, g)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := sess.Stats()
	if err != nil {
		writeError(w, err)
		return
	}

	defer s.lock(name).Unlock()
	if err := s.store.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("created session", "name", name, "id", sess.ID, "vertices", st.Vertices)
	writeJSON(w, http.StatusCreated, SessionSummary{ID: sess.ID, Name: name, Stats: st})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	defer s.lock(name).Unlock()
	if err := s.store.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := sess.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Replacement) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidRule, "replacement is required"))
		return
	}
	raw, err := pkgio.ReadRaw(bytes.NewReader(req.Replacement))
	if err != nil {
		writeError(w, err)
		return
	}
	rhs, err := graph.Canonicalize(raw)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidRule, err, "replacement"))
		return
	}
	rule := &production.Rule{
		Name:        req.Name,
		Target:      req.Target,
		Replacement: rhs,
		Embedding:   req.Embedding,
	}

	defer s.lock(name).Unlock()
	sess, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.Apply(rule)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("applied production",
		"session", name,
		"target", rule.Target,
		"step", len(sess.Steps),
		"vertices", res.Stats.Vertices,
		"dropped", res.Dropped())
	writeJSON(w, http.StatusOK, toApplyResponse(res, len(sess.Steps)))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts := render.Options{
		Detailed: r.URL.Query().Get("detailed") == "true",
		Title:    r.URL.Query().Get("title"),
	}
	dot := render.ToDOT(sess.Graph, opts)

	switch format := r.URL.Query().Get("format"); format {
	case "", "svg":
		svg, err := render.RenderSVG(r.Context(), dot)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render SVG"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be svg or dot)", format))
	}
}

func toApplyResponse(res *production.Result, step int) ApplyResponse {
	out := ApplyResponse{
		Stats:    res.Stats,
		Target:   res.Target,
		Inserted: res.Inserted,
		Dangling: make([]DanglingEdge, len(res.Dangling)),
		Step:     step,
	}
	for i, d := range res.Dangling {
		e := DanglingEdge{
			Neighbor:      d.Neighbor,
			Label:         d.Label,
			Destination:   d.Destination,
			InReplacement: d.InReplacement,
		}
		if !d.Dropped() {
			id := d.AttachedTo
			e.AttachedTo = &id
		}
		out.Dangling[i] = e
	}
	return out
}

// readGraph decodes a node-link body and canonicalizes it.
func readGraph(w http.ResponseWriter, r *http.Request) (*graph.Graph, error) {
	raw, err := pkgio.ReadRaw(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	g, err := graph.Canonicalize(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "canonicalize request graph")
	}
	return g, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}
