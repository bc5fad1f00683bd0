package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/config"
	"github.com/wonny/etfbalancer/pkg/logger"
)

func sampleRun(t *testing.T, source string) *contracts.Run {
	t.Helper()

	p := &contracts.Portfolio{
		Target: map[string]float64{"A": 1},
		Accounts: []contracts.Account{
			{Name: "taxable", Cash: 50, Positions: map[string]float64{"A": 5}},
		},
		Market: []contracts.MarketEntry{{Symbol: "A", Price: 10, DivYield: contracts.Float64(0.02)}},
	}
	results := contracts.NewResults()
	results.Positions["taxable"] = map[string]float64{"A": 10}
	results.Cash["taxable"] = 0
	results.Allocations = map[string]float64{"A": 1, contracts.CashKey: 0}
	results.Orders = []contracts.Order{
		{Account: "taxable", Symbol: "A", Side: contracts.OrderSideBuy, Qty: 5, Price: 10, Value: 50},
	}

	return NewRun(source, p, results, 3*time.Millisecond)
}

func TestNewRun(t *testing.T) {
	run := sampleRun(t, SourceCLI)

	assert.Len(t, run.ID, 36)
	assert.Equal(t, SourceCLI, run.Source)
	assert.Equal(t, 100.0, run.TotalValue)
	assert.Equal(t, 0.0, run.TotalCash)
	assert.Equal(t, 1, run.OrderCount)
	assert.Equal(t, int64(3), run.DurationMs)
	assert.Equal(t, time.UTC, run.CreatedAt.Location())

	other := sampleRun(t, SourceCLI)
	assert.NotEqual(t, run.ID, other.ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, DefaultListLimit, clampLimit(-5))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxListLimit, clampLimit(MaxListLimit+1))
}

func TestNoopRecorder(t *testing.T) {
	ctx := context.Background()
	rec := NewNoopRecorder()

	require.NoError(t, rec.Record(ctx, sampleRun(t, SourceAPI)))

	_, err := rec.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrRunNotFound)

	list, err := rec.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, rec.Close())
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	first := sampleRun(t, SourceAPI)
	second := sampleRun(t, SourceScheduler)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, rec.Record(ctx, first))
	require.NoError(t, rec.Record(ctx, second))

	t.Run("get", func(t *testing.T) {
		got, err := rec.Get(ctx, first.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, SourceAPI, got.Source)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, first.Portfolio, got.Portfolio)
		assert.Equal(t, first.Results, got.Results)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := rec.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := rec.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		assert.Equal(t, first.Summary().OrderCount, list[1].OrderCount)

		list, err = rec.List(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("duplicate id", func(t *testing.T) {
		assert.Error(t, rec.Record(ctx, first))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	t.Run("disabled", func(t *testing.T) {
		rec, err := Open(ctx, &config.Config{}, log)
		require.NoError(t, err)
		assert.IsType(t, &NoopRecorder{}, rec)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{History: config.HistoryConfig{
			Enabled:    true,
			SQLitePath: filepath.Join(t.TempDir(), "nested", "runs.db"),
		}}
		rec, err := Open(ctx, cfg, log)
		require.NoError(t, err)
		defer rec.Close()
		assert.IsType(t, &SQLiteRecorder{}, rec)
	})

	t.Run("no store configured", func(t *testing.T) {
		cfg := &config.Config{History: config.HistoryConfig{Enabled: true}}
		rec, err := Open(ctx, cfg, log)
		require.NoError(t, err)
		assert.IsType(t, &NoopRecorder{}, rec)
	})
}
