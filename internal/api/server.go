// Package api exposes the triage service over HTTP: the workflow
// invocation boundary plus a handful of direct debugging endpoints that
// bypass the workflow.
package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/rendis/triago/internal/engine"
	"github.com/rendis/triago/internal/lookup"
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/internal/reply"
)

// ServerDeps holds the dependencies for the API server.
type ServerDeps struct {
	Registry *refdata.Registry
	Executor *engine.Executor
	Searcher *lookup.Searcher
	Query    *refdata.QueryEngine
	Renderer *reply.Renderer
	Logger   *slog.Logger
}

// Server routes HTTP requests to the executor and the debug shortcuts.
type Server struct {
	deps ServerDeps
}

// NewServer creates a new API Server.
func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{deps: deps}
}

// Handler returns the HTTP handler for all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// The invocation boundary: one call, one pass.
	mux.HandleFunc("POST /triage/invoke", s.handleInvoke)

	// Debug shortcuts. These bypass the workflow entirely.
	mux.HandleFunc("GET /orders/get", s.handleOrderGet)
	mux.HandleFunc("GET /orders/search", s.handleOrderSearch)
	mux.HandleFunc("POST /classify/issue", s.handleClassify)
	mux.HandleFunc("POST /reply/draft", s.handleReplyDraft)
	mux.HandleFunc("POST /refdata/query", s.handleRefDataQuery)
	mux.HandleFunc("POST /refdata/reload", s.handleRefDataReload)

	return mux
}
