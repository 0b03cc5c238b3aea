package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// RunsHandler serves recorded pipeline runs
type RunsHandler struct {
	store interfaces.RunStore
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(store interfaces.RunStore) *RunsHandler {
	return &RunsHandler{
		store: store,
	}
}

// List returns the most recent runs, newest first. The limit query
// parameter caps the result.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, goerr.New("limit must be a positive integer"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to list runs", "error", err)
		writeError(w, goerr.Wrap(err, "failed to list runs"), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*model.PipelineRun{}
	}

	writeJSON(r, w, map[string]any{"runs": runs})
}

// Get returns a single run with its steps and artifacts
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			writeError(w, err, http.StatusNotFound)
			return
		}
		ctxlog.From(r.Context()).Error("Failed to load run", "error", err, "run_id", runID)
		writeError(w, goerr.Wrap(err, "failed to load run"), http.StatusInternalServerError)
		return
	}

	writeJSON(r, w, run)
}

// writeJSON writes a success response
func writeJSON(r *http.Request, w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
