// Package server exposes evaluation over HTTP. Every endpoint is stateless:
// the same request body always produces the same response body.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/lti"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/sim"
	"golang.org/x/sync/errgroup"
)

const (
	maxBodyBytes = 1 << 20
	maxBatch     = 64
)

// Evaluator is satisfied by *service.Service.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg config.Config) (*response.Report, error)
}

type Options struct {
	Addr    string
	Workers int
	Logger  *log.Logger
}

type Server struct {
	eval       Evaluator
	logger     *log.Logger
	workers    int
	httpServer *http.Server
}

func New(eval Evaluator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		eval:    eval,
		logger:  opts.Logger,
		workers: opts.Workers,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, logging every request.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/evaluate/batch", s.handleBatch)
	mux.HandleFunc("GET /v1/presets", s.handlePresets)
	mux.HandleFunc("GET /v1/presets/{name}", s.handlePreset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logged(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps evaluation errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, lti.ErrInvalidModel):
		return http.StatusUnprocessableEntity, "invalid_model"
	case errors.Is(err, lti.ErrNumericalInstability):
		return http.StatusUnprocessableEntity, "numerical_instability"
	case errors.Is(err, lti.ErrUndefinedMetric):
		return http.StatusUnprocessableEntity, "undefined_metric"
	case errors.Is(err, sim.ErrInvalidGrid):
		return http.StatusBadRequest, "invalid_grid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	}
	return http.StatusBadRequest, "invalid_request"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := statusFor(err)
	s.writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

// decodeConfig reads a config body; fields left out keep their defaults.
func decodeConfig(w http.ResponseWriter, r *http.Request, cfg *config.Config) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	cfg := config.DefaultConfig()
	if err := decodeConfig(w, r, cfg); err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.eval.Evaluate(r.Context(), *cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type batchItem struct {
	Report *response.Report `json:"report,omitempty"`
	Error  *errorBody       `json:"error,omitempty"`
}

// handleBatch evaluates a list of configs concurrently. Each item succeeds
// or fails on its own.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var raw []json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatch*maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		s.writeError(w, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if len(raw) == 0 || len(raw) > maxBatch {
		s.writeError(w, fmt.Errorf("batch must hold 1 to %d configs, got %d", maxBatch, len(raw)))
		return
	}

	items := make([]batchItem, len(raw))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.workers)
	for i, body := range raw {
		g.Go(func() error {
			cfg := config.DefaultConfig()
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.DisallowUnknownFields()
			if err := dec.Decode(cfg); err != nil {
				items[i].Error = &errorBody{Error: err.Error(), Kind: "invalid_request"}
				return nil
			}
			report, err := s.eval.Evaluate(ctx, *cfg)
			if err != nil {
				_, kind := statusFor(err)
				items[i].Error = &errorBody{Error: err.Error(), Kind: kind}
				return nil
			}
			items[i].Report = report
			return nil
		})
	}
	// Items carry their own errors; no goroutine fails the group.
	_ = g.Wait()

	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, config.ListPresets())
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cfg := config.GetPreset(name)
	if cfg == nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown preset: " + name, Kind: "not_found"})
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
