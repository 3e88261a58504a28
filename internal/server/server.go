// Package server exposes the planning and execution pipeline over HTTP: plan
// generation, plan validation and execution, the atom catalog, run history,
// and a WebSocket stream of run events.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/flowmind/internal/metrics"
	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/executor"
	"github.com/harun/flowmind/pkg/history"
	"github.com/harun/flowmind/pkg/planner"
	"github.com/harun/flowmind/pkg/schedule"
)

// Options configures the HTTP server.
type Options struct {
	Host string
	Port int
}

// Server is the flowmind HTTP server.
type Server struct {
	options  Options
	server   *http.Server
	registry func() *atoms.Registry
	planner  *planner.Planner
	executor *executor.Executor
	store    *history.Store
	sched    *schedule.Scheduler
	hub      *Hub
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// New creates the server. registry is a getter rather than a snapshot so
// catalog reloads from the atoms watcher take effect without a restart.
// store and sched may be nil, in which case run history and schedule
// endpoints report 503. mets may be nil, which disables /metrics.
func New(options Options, registry func() *atoms.Registry, p *planner.Planner, exec *executor.Executor, store *history.Store, sched *schedule.Scheduler, mets *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8080
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if registry == nil {
		return nil, fmt.Errorf("registry getter is required")
	}
	if p == nil {
		return nil, fmt.Errorf("planner is required")
	}
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}

	componentLogger := logger.With().Str("component", "server").Logger()
	return &Server{
		options:   options,
		registry:  registry,
		planner:   p,
		executor:  exec,
		store:     store,
		sched:     sched,
		hub:       NewHub(componentLogger),
		metrics:   mets,
		logger:    componentLogger,
		startTime: time.Now(),
	}, nil
}

// Start runs the server until Stop is called. It blocks.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/plan", s.handlePlan)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/atoms", s.handleAtoms)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/runs/", s.handleRunByID)
	mux.HandleFunc("/schedules", s.handleSchedules)
	mux.HandleFunc("/ws/runs", s.handleRunStream)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.withRequestID(mux),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// rejectIfShuttingDown reports whether the request was refused because the
// server is draining. It also tracks in-flight requests.
func (s *Server) rejectIfShuttingDown(w http.ResponseWriter) bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	if s.isShuttingDown {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return true
	}
	s.inFlightReqs.Add(1)
	return false
}
