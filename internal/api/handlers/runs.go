package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/pkg/logger"
)

// RunsHandler serves recorded rebalance runs
type RunsHandler struct {
	recorder contracts.RunRecorder
	logger   *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(recorder contracts.RunRecorder, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		recorder: recorder,
		logger:   log,
	}
}

// List returns recent run summaries, newest first
// GET /api/runs?limit=20
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.recorder.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one recorded run
// GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.recorder.Get(r.Context(), id)
	if errors.Is(err, history.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
