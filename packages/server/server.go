// Package server exposes a shared spreadsheet over HTTP/JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// SaveFunc persists the spreadsheet after a successful change. it runs
// under the write lock.
type SaveFunc func(ctx context.Context, s *spreadsheet.Spreadsheet) error

// Server routes requests to one shared spreadsheet
type Server struct {
	router *chi.Mux
	sheet  *spreadsheet.SharedSpreadsheet
	logger *slog.Logger
	save   SaveFunc
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAutosave calls save after every applied change. a failed save is
// logged and does not fail the request.
func WithAutosave(save SaveFunc) Option {
	return func(s *Server) {
		s.save = save
	}
}

// New creates a server for sheet
func New(sheet *spreadsheet.SharedSpreadsheet, opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		sheet:  sheet,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/summary", s.handleSummary)
	s.router.Get("/export/{format}", s.handleExport)

	s.router.Route("/cells", func(r chi.Router) {
		r.Get("/", s.handleListCells)
		r.Get("/{name}", s.handleGetCell)
		r.Put("/{name}", s.handlePutCell)
		r.Delete("/{name}", s.handleDeleteCell)
		r.Get("/{name}/dependents", s.handleDependents)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch spreadsheet.CodeOf(err) {
	case spreadsheet.InvalidArgument:
		return http.StatusBadRequest
	case spreadsheet.FailedPrecondition:
		return http.StatusConflict
	case spreadsheet.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Code:  spreadsheet.CodeOf(err).String(),
		Error: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
