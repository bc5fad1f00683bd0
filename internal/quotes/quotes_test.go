package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/httputil"
	"github.com/wonny/etfbalancer/pkg/logger"
	"github.com/wonny/etfbalancer/pkg/redis"
)

func newTestClient(baseURL string) *YahooClient {
	log := logger.NewNop()
	httpClient := httputil.New(time.Second, log).WithRetry(1, 10*time.Millisecond)
	return NewYahooClient(httpClient, baseURL, redis.NewCache(redis.Disabled(), "test"), log)
}

func TestYahooClient_Quotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "VTI,BND,NOPE", r.URL.Query().Get("symbols"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quoteResponse":{"result":[
			{"symbol":"BND","regularMarketPrice":72.5,"trailingAnnualDividendYield":0.034},
			{"symbol":"VTI","regularMarketPrice":250.25}
		],"error":null}}`))
	}))
	defer server.Close()

	entries, err := newTestClient(server.URL+"/").Quotes(context.Background(), []string{"VTI", "BND", "NOPE"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Request order is preserved
	assert.Equal(t, "VTI", entries[0].Symbol)
	assert.Equal(t, 250.25, entries[0].Price)
	assert.Nil(t, entries[0].DivYield)

	assert.Equal(t, "BND", entries[1].Symbol)
	require.NotNil(t, entries[1].DivYield)
	assert.Equal(t, 0.034, *entries[1].DivYield)
}

func TestYahooClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":{"code":"Bad Request","description":"Missing value for the \"symbols\" argument"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Quotes(context.Background(), []string{"VTI"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad Request")
}

type stubSource struct {
	entries []contracts.MarketEntry
	err     error
	asked   []string
}

func (s *stubSource) Quotes(ctx context.Context, symbols []string) ([]contracts.MarketEntry, error) {
	s.asked = symbols
	return s.entries, s.err
}

func TestRefresh(t *testing.T) {
	p := &contracts.Portfolio{
		Target: map[string]float64{"A": 0.5, "B": 0.5},
		Accounts: []contracts.Account{
			{Name: "taxable", Positions: map[string]float64{"C": 3}},
		},
		Market: []contracts.MarketEntry{
			{Symbol: "A", Price: 10, DivYield: contracts.Float64(0.02)},
			{Symbol: "C", Price: 5},
		},
	}
	src := &stubSource{entries: []contracts.MarketEntry{
		{Symbol: "A", Price: 11},
		{Symbol: "B", Price: 101, DivYield: contracts.Float64(0.01)},
	}}

	n, err := Refresh(context.Background(), src, p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"A", "B", "C"}, src.asked)

	prices := p.Prices()
	assert.Equal(t, 11.0, prices["A"])
	assert.Equal(t, 101.0, prices["B"])
	assert.Equal(t, 5.0, prices["C"], "unreturned entries are kept")
	assert.Equal(t, 0.02, p.Yields()["A"], "known yield survives a quote without one")
}

func TestRefresh_Error(t *testing.T) {
	p := &contracts.Portfolio{Target: map[string]float64{"A": 1}}
	_, err := Refresh(context.Background(), &stubSource{err: errors.New("down")}, p)
	assert.Error(t, err)
}
