package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/api/handlers"
	"github.com/wonny/etfbalancer/internal/balancer"
	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/pkg/logger"
	"github.com/wonny/etfbalancer/pkg/redis"
)

func TestRunStream(t *testing.T) {
	log := logger.NewNop()
	disabled := redis.Disabled()
	feed := history.NewFeed(history.NewNoopRecorder())

	router := NewRouter(RouterDeps{
		Balance: handlers.NewBalanceHandler(
			balancer.New(log), feed, redis.NewCache(disabled, "test"), time.Minute, log,
		),
		Runs:               handlers.NewRunsHandler(feed, log),
		Stream:             handlers.NewStreamHandler(feed, log),
		Limiter:            redis.NewRateLimiter(disabled, "test"),
		RateLimitPerMinute: 60,
		Logger:             log,
	})

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/runs/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return feed.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	post, err := http.Post(server.URL+"/balance", "application/json", strings.NewReader(scenarioA))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)
	runID := post.Header.Get("X-Run-ID")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var summary contracts.RunSummary
	require.NoError(t, conn.ReadJSON(&summary))
	assert.Equal(t, runID, summary.ID)
	assert.Equal(t, history.SourceAPI, summary.Source)
	assert.InDelta(t, 10000, summary.TotalValue, 1e-9)

	// Client going away releases the subscription
	conn.Close()
	require.Eventually(t, func() bool { return feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRunStream_PlainHTTPRejected(t *testing.T) {
	feed := history.NewFeed(history.NewNoopRecorder())
	h := handlers.NewStreamHandler(feed, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Stream(rec, httptest.NewRequest(http.MethodGet, "/api/runs/stream", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, feed.Subscribers())
}
