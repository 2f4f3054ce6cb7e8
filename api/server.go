// Package api - Thin, deterministic API layer
// The API is ONLY responsible for input ingestion, pricer orchestration and
// output serialization. It never performs pricing arithmetic itself.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"option-lattice/core/book"
	"option-lattice/core/lattice"
	apperrors "option-lattice/internal/errors"
)

// maxBodyBytes bounds request bodies, books included
const maxBodyBytes = 1 << 20

// Options configure a Server
type Options struct {
	Version  string
	Pricer   *lattice.Pricer
	Valuer   *book.Valuer
	Defaults book.Defaults

	// MaxSteps caps the lattice size any single request may ask for
	MaxSteps int

	Logger *zap.Logger
}

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	handler http.Handler
	opts    Options
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Pricer == nil {
		opts.Pricer = lattice.NewPricer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Valuer == nil {
		opts.Valuer = book.NewValuer(opts.Pricer, 0, opts.Logger)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 5000
	}

	s := &Server{
		mux:    http.NewServeMux(),
		opts:   opts,
		logger: opts.Logger,
	}
	s.registerRoutes()
	s.handler = s.audit(s.mux)
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /price", s.handlePrice)
	s.mux.HandleFunc("POST /converge", s.handleConverge)
	s.mux.HandleFunc("POST /book", s.handleBook)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{
		Status:  "healthy",
		Version: s.opts.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, VersionResponse{
		Version:    s.opts.Version,
		Engine:     "option-lattice",
		APIVersion: "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

// writeError classifies err and writes it with the matching status
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	classified := apperrors.Classify(err)
	message := classified.Message
	if classified.Cause != nil {
		message += ": " + classified.Cause.Error()
	}
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{
		Code:      string(classified.Type),
		Message:   message,
		Context:   classified.Context,
		RequestID: requestID(r.Context()),
	}}, classified.HTTPStatus())
}

// decodeJSON reads a JSON body, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.TypeInvalidJSON, "cannot decode request body", err)
	}
	return nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
