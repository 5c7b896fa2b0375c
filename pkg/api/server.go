// Package api exposes the folding pipeline and the pathway store over
// HTTP. Routing is handled by chi; handlers speak JSON and map
// structured error codes onto HTTP statuses.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/storyfold/pkg/observability"
	"github.com/matzehuels/storyfold/pkg/pipeline"
	"github.com/matzehuels/storyfold/pkg/store"
)

// Server wires the pipeline runner and pathway store into an HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	fold   FoldDefaults
	logger *log.Logger
	router chi.Router
}

// FoldDefaults are server-side defaults applied to fold requests that
// leave the corresponding field empty.
type FoldDefaults struct {
	Policy       string
	Rerank       bool
	HideIntro    bool
	Ignore       []string
	ReduceBudget int
}

// NewServer creates the API server. A nil store falls back to an
// in-memory store; a nil logger to the default logger.
func NewServer(runner *pipeline.Runner, st store.Store, fold FoldDefaults, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		fold:   fold,
		logger: logger,
	}
	s.routes()
	return s
}

// Router returns the HTTP handler for the server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/fold", s.handleFold)
		r.Route("/pathways", func(r chi.Router) {
			r.Get("/", s.handleListPathways)
			r.Get("/{id}", s.handleGetPathway)
			r.Delete("/{id}", s.handleDeletePathway)
		})
	})

	s.router = r
}

// observe reports request timing to the API hooks and the logger.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.API().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.API().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
