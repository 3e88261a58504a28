package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/harun/flowmind/internal/tracing"
	"github.com/harun/flowmind/pkg/executor"
	"github.com/harun/flowmind/pkg/history"
	"github.com/harun/flowmind/pkg/plan"
	"github.com/harun/flowmind/pkg/validator"
)

type planRequest struct {
	Intent string `json:"intent"`
}

type executeRequest struct {
	Plan       map[string]any            `json:"plan"`
	UserInputs map[string]map[string]any `json:"user_inputs,omitempty"`
}

type scheduleRequest struct {
	Name string         `json:"name"`
	Expr string         `json:"expr"`
	Plan map[string]any `json:"plan"`
}

// runResponse is the common shape of /plan and /execute responses.
type runResponse struct {
	RunID      string            `json:"run_id,omitempty"`
	Plan       map[string]any    `json:"plan"`
	Validation *validator.Result `json:"validation"`
	Execution  *executor.Result  `json:"execution,omitempty"`
}

// withRequestID tags every request with a generated ID and logs it.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := gonanoid.New()
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(tracing.WithRequestID(r.Context(), requestID))

		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues(r.URL.Path, r.Method).Inc()
		}

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).Seconds(),
		"atom_count": s.registry().Len(),
		"timestamp":  time.Now().UnixMilli(),
	})
}

// handlePlan turns an intent into a plan, validates it, and executes it when
// valid. Steps are enriched with their atom's input schema so a client can
// render per-step forms without a separate catalog query.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.rejectIfShuttingDown(w) {
		return
	}
	defer s.inFlightReqs.Done()

	var req planRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	registry := s.registry()
	planDoc, err := s.planner.Plan(r.Context(), req.Intent, registry)
	if err != nil {
		s.logger.Error().Err(err).Msg("Plan generation failed")
		http.Error(w, "Failed to generate plan", http.StatusInternalServerError)
		return
	}

	doc, err := planDoc.AsMap()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode plan document")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.attachInputSchemas(doc)

	s.runPipeline(w, r, doc)
}

// handleValidate checks a submitted plan without executing it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var doc map[string]any
	if err := readJSON(r, &doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := validator.Validate(doc, s.registry())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// handleExecute runs a submitted plan after merging per-step user inputs.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.rejectIfShuttingDown(w) {
		return
	}
	defer s.inFlightReqs.Done()

	var req executeRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Plan == nil {
		http.Error(w, "plan document is required", http.StatusBadRequest)
		return
	}

	mergeUserInputs(req.Plan, req.UserInputs)
	s.runPipeline(w, r, req.Plan)
}

// runPipeline validates, executes, records, and broadcasts a run.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request, doc map[string]any) {
	registry := s.registry()
	logger := tracing.LoggerFromContext(r.Context(), s.logger)

	verdict, err := validator.Validate(doc, registry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordValidation(verdict.Valid)
	}

	start := time.Now()
	result, err := s.executor.Execute(r.Context(), doc, verdict, registry)
	if err != nil {
		logger.Error().Err(err).Msg("Execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordExecution(result.Success, time.Since(start).Seconds())
		for _, stepResult := range result.StepResults {
			s.metrics.StepsTotal.WithLabelValues(string(stepResult.Status)).Inc()
		}
	}

	response := runResponse{Plan: doc, Validation: verdict, Execution: result}
	if s.store != nil {
		run, err := s.store.Record(r.Context(), doc, verdict, result)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to record run")
		} else {
			response.RunID = run.ID
		}
	}

	s.hub.Broadcast("run.finished", response.RunID, response)
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAtoms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"atoms": s.registry().All()})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Run history is not enabled", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Run history is not enabled", http.StatusServiceUnavailable)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := s.store.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		http.Error(w, "Scheduling is not enabled", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"schedules": s.sched.Entries()})
	case http.MethodPost:
		var req scheduleRequest
		if err := readJSON(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.sched.Add(req.Name, req.Expr, req.Plan); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name})
	case http.MethodDelete:
		name := r.URL.Query().Get("name")
		if err := s.sched.Remove(name); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	s.hub.Serve(w, r)
}

// attachInputSchemas adds each step's atom input definitions under
// "input_schema" so clients can render per-step input forms.
func (s *Server) attachInputSchemas(doc map[string]any) {
	registry := s.registry()
	for _, step := range plan.Steps(doc) {
		if step == nil {
			continue
		}
		atomID, _ := step["atom_id"].(string)
		def, ok := registry.Get(atomID)
		if !ok {
			continue
		}
		step["input_schema"] = def.Inputs
	}
}

// mergeUserInputs overlays per-step user values onto each step's inputs,
// keyed by effective step identifier. User values win over plan values.
func mergeUserInputs(doc map[string]any, userInputs map[string]map[string]any) {
	if len(userInputs) == 0 {
		return
	}
	for index, step := range plan.Steps(doc) {
		if step == nil {
			continue
		}
		overlay := userInputs[plan.EffectiveStepID(step, index)]
		if len(overlay) == 0 {
			continue
		}

		merged := make(map[string]any)
		if existing, ok := step["inputs"].(map[string]any); ok {
			for k, v := range existing {
				merged[k] = v
			}
		}
		for k, v := range overlay {
			merged[k] = v
		}
		step["inputs"] = merged
	}
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
