package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/balancer"
	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/internal/portfolio"
	"github.com/wonny/etfbalancer/pkg/logger"
)

const portfolioYAML = `
target: {A: 0.5, B: 0.5}
accounts:
  - name: taxable
    cash: 10000
    positions: {}
market:
  - {symbol: A, price: 10}
  - {symbol: B, price: 100}
`

type staticQuotes struct {
	entries []contracts.MarketEntry
}

func (s staticQuotes) Quotes(ctx context.Context, symbols []string) ([]contracts.MarketEntry, error) {
	return s.entries, nil
}

func writePortfolio(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "household.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRebalanceJob_Run(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	path := writePortfolio(t, portfolioYAML)
	output := filepath.Join(filepath.Dir(path), "out.json")

	recorder, err := history.NewSQLiteRecorder(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer recorder.Close()

	job := NewRebalanceJob(
		RebalanceJobConfig{Path: path, OutputPath: output, Schedule: "@daily"},
		balancer.New(log), nil, recorder, log,
	)
	assert.Equal(t, "rebalance:household", job.Name())
	assert.Equal(t, "@daily", job.Schedule())
	assert.Nil(t, job.LastRun())

	require.NoError(t, job.Run(ctx))

	run := job.LastRun()
	require.NotNil(t, run)
	assert.Equal(t, history.SourceScheduler, run.Source)
	assert.Equal(t, 500.0, run.Results.Positions["taxable"]["A"])

	stored, err := recorder.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.OrderCount, stored.OrderCount)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_cash"`)
}

func TestRebalanceJob_RefreshesQuotes(t *testing.T) {
	log := logger.NewNop()
	path := writePortfolio(t, portfolioYAML)

	// Fresh quotes double A's price: half the shares at the same dollar target
	src := staticQuotes{entries: []contracts.MarketEntry{{Symbol: "A", Price: 20}}}
	job := NewRebalanceJob(RebalanceJobConfig{Path: path, Schedule: "@daily"},
		balancer.New(log), src, history.NewNoopRecorder(), log)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 250.0, job.LastRun().Results.Positions["taxable"]["A"])

	// The file itself is not rewritten
	p, err := portfolio.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p.Prices()["A"])
}

func TestRebalanceJob_Errors(t *testing.T) {
	log := logger.NewNop()

	missing := NewRebalanceJob(RebalanceJobConfig{Path: "/nonexistent/p.yaml"},
		balancer.New(log), nil, history.NewNoopRecorder(), log)
	assert.Error(t, missing.Run(context.Background()))

	invalid := writePortfolio(t, "target: {A: 0.3}\nmarket: [{symbol: A, price: 1}]\n")
	job := NewRebalanceJob(RebalanceJobConfig{Path: invalid},
		balancer.New(log), nil, history.NewNoopRecorder(), log)
	err := job.Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrAllocationSum)
	assert.Nil(t, job.LastRun())
}
