// Package api serves rewriting sessions over HTTP.
//
// # Routes
//
//	GET    /healthz                    liveness probe
//	POST   /canonicalize               canonicalize a node-link graph
//	POST   /stats                      statistics of a node-link graph
//	GET    /sessions                   list session names
//	PUT    /sessions/{name}            create or replace a session from a graph
//	GET    /sessions/{name}            session with graph and step log
//	DELETE /sessions/{name}            delete a session
//	GET    /sessions/{name}/stats      statistics of the current graph
//	POST   /sessions/{name}/apply      apply a production
//	GET    /sessions/{name}/render     DOT or SVG of the current graph
//
// Request and response graphs use the node-link JSON format of [pkg/io].
// Errors are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
//
// [pkg/io]: github.com/matzehuels/graphprod/pkg/io
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphprod/pkg/buildinfo"
	"github.com/matzehuels/graphprod/pkg/observability"
	"github.com/matzehuels/graphprod/pkg/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Server exposes a session store over HTTP.
type Server struct {
	store  session.Store
	logger *log.Logger

	// locks serializes read-modify-write cycles per session name.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a server over store. A nil logger uses log.Default().
func New(store session.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Short()})
	})
	r.Post("/canonicalize", s.handleCanonicalize)
	r.Post("/stats", s.handleStats)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Put("/", s.handlePut)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/stats", s.handleSessionStats)
			r.Post("/apply", s.handleApply)
			r.Get("/render", s.handleRender)
		})
	})
	return r
}

// lock returns the held mutex for name; callers must Unlock it.
func (s *Server) lock(name string) *sync.Mutex {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
