// Package api exposes the resolution pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/resolve"
	"github.com/p-n-ai/pai-coursework/internal/store"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

const maxBodyBytes = 1 << 20

// Resolver runs one unit through the pipeline. *resolve.Orchestrator
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, u resolve.Unit) (resolve.Outcome, error)
}

// Analyzer extracts structure from course content. *task.Handlers satisfies it.
type Analyzer interface {
	AnalyzeCourse(ctx context.Context, unit task.ContentUnit) (task.CourseAnalysis, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Resolver Resolver
	Analyzer Analyzer
	Runs     store.RunStore
	Prompts  *prompt.Builder
	Events   http.Handler
	Budget   *ai.Budget // optional
	// Ready reports backing service health for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// UnitTimeout bounds each resolve and analyze request. Zero disables it.
	UnitTimeout time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	deps Deps
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes returns the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)

	mux.HandleFunc("POST /v1/resolve", h.resolveUnit)
	mux.HandleFunc("POST /v1/analyze", h.analyze)
	mux.HandleFunc("GET /v1/runs", h.listRuns)
	mux.HandleFunc("GET /v1/runs/{runID}", h.getRun)
	mux.HandleFunc("GET /v1/templates", h.templates)
	mux.HandleFunc("GET /v1/usage", h.usage)
	if h.deps.Events != nil {
		mux.Handle("GET /v1/events", h.deps.Events)
	}
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.deps.UnitTimeout > 0 {
		return context.WithTimeout(ctx, h.deps.UnitTimeout)
	}
	return context.WithCancel(ctx)
}

// statusFor maps a pipeline error kind onto an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case resolve.KindService, resolve.KindAuthentication, resolve.KindEmptyResponse, resolve.KindSubmission:
		return http.StatusBadGateway
	case resolve.KindCanceled:
		return http.StatusGatewayTimeout
	case resolve.KindBudgetExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

// GET /healthz
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// POST /v1/resolve
func (h *Handler) resolveUnit(w http.ResponseWriter, r *http.Request) {
	var unit resolve.Unit
	if !decodeBody(w, r, &unit) {
		return
	}
	if strings.TrimSpace(unit.Content.Body) == "" {
		respondError(w, http.StatusBadRequest, "content.body is required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	out, err := h.deps.Resolver.Resolve(ctx, unit)
	if err != nil {
		respondJSON(w, statusFor(out.ErrorKind), out)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /v1/analyze
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var unit task.ContentUnit
	if !decodeBody(w, r, &unit) {
		return
	}
	if strings.TrimSpace(unit.Body) == "" {
		respondError(w, http.StatusBadRequest, "body is required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	analysis, err := h.deps.Analyzer.AnalyzeCourse(ctx, unit)
	if err != nil {
		kind := resolve.ErrorKind(err)
		slog.Warn("course analysis failed", "kind", kind, "error", err)
		respondJSON(w, statusFor(kind), errorResponse{Error: err.Error(), Kind: kind})
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// GET /v1/runs?limit=N
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.deps.Runs.List(r.Context(), limit)
	if err != nil {
		slog.Error("list runs", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	if runs == nil {
		runs = []resolve.Outcome{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// GET /v1/runs/{runID}
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("runID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	out, err := h.deps.Runs.Get(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		slog.Error("get run", "run_id", runID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /v1/templates
func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.deps.Prompts.Templates())
}

type usageResponse struct {
	Metered   bool                `json:"metered"`
	Remaining int64               `json:"remaining"`
	Tasks     map[string]ai.Usage `json:"tasks"`
}

// GET /v1/usage
func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Budget == nil {
		respondJSON(w, http.StatusOK, usageResponse{Remaining: -1, Tasks: map[string]ai.Usage{}})
		return
	}
	respondJSON(w, http.StatusOK, usageResponse{
		Metered:   true,
		Remaining: h.deps.Budget.Remaining(),
		Tasks:     h.deps.Budget.Snapshot(),
	})
}
