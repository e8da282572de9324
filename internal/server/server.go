// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MaksimPopov64/ocr-drw/internal/export"
	"github.com/MaksimPopov64/ocr-drw/internal/history"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

// Runner is the slice of the processor the handlers call.
type Runner interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Record
}

// ReadyFunc reports whether the secondary extraction engine is reachable.
type ReadyFunc func(ctx context.Context) bool

// Server wires the HTTP handlers to the pipeline and its stores.
type Server struct {
	runner         Runner
	store          history.Store
	exporter       *export.Service
	secondaryReady ReadyFunc
	logger         *slog.Logger
}

func New(runner Runner, store history.Store, exporter *export.Service, secondaryReady ReadyFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:         runner,
		store:          store,
		exporter:       exporter,
		secondaryReady: secondaryReady,
		logger:         logger,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Post("/batch", s.handleBatch)
		r.Get("/history", s.handleHistory)
		r.Get("/results/{id}", s.handleResult)
		r.Get("/export", s.handleExport)
	})
	return r
}
