package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/pkg/logger"
	"github.com/wonny/etfbalancer/pkg/redis"
)

// maxBodyBytes bounds the size of a rebalance request
const maxBodyBytes = 1 << 20

// BalanceHandler handles rebalance requests
// ⭐ SSOT: 리밸런싱 API 핸들러는 이 구조체에서만
type BalanceHandler struct {
	balancer contracts.Balancer
	recorder contracts.RunRecorder
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(
	balancer contracts.Balancer,
	recorder contracts.RunRecorder,
	cache *redis.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *BalanceHandler {
	return &BalanceHandler{
		balancer: balancer,
		recorder: recorder,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// Index is the liveness greeting
// GET /
func (h *BalanceHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello, balancer"))
}

// Balance rebalances the posted portfolio
// POST /balance
func (h *BalanceHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Decode
	var p contracts.Portfolio
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// 2. Pre-flight validation (fixed messages)
	if err := p.Validate(); err != nil {
		if errors.Is(err, contracts.ErrAllocationSum) || errors.Is(err, contracts.ErrMissingPrices) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid portfolio")
		return
	}

	// 3. Cached result for an identical request
	canonical, err := json.Marshal(&p)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to encode portfolio")
		return
	}
	cacheKey := redis.ResultKey(canonical)

	var cached contracts.Results
	hit, err := h.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		h.logger.WithError(err).Warn("Result cache read failed")
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	// 4. Rebalance
	start := time.Now()
	results := h.balancer.Balance(&p)
	elapsed := time.Since(start)

	// 5. Record and cache (failures are logged, never returned)
	run := history.NewRun(history.SourceAPI, &p, results, elapsed)
	runLog := h.logger.WithRun(run.ID)
	if err := h.recorder.Record(ctx, run); err != nil {
		runLog.WithError(err).Warn("Failed to record run")
	} else {
		w.Header().Set("X-Run-ID", run.ID)
	}
	if err := h.cache.Set(ctx, cacheKey, results, h.cacheTTL); err != nil {
		runLog.WithError(err).Warn("Result cache write failed")
	}

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, results)
}
