package balancer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/contracts"
)

func TestNewPlan(t *testing.T) {
	p := &contracts.Portfolio{
		Target: map[string]float64{"A": 0.5, "B": 0.5},
		Accounts: []contracts.Account{
			{Name: "taxable", Cash: 0, Positions: map[string]float64{"B": 100, "C": 10}},
		},
		Market: []contracts.MarketEntry{
			{Symbol: "A", Price: 10},
			{Symbol: "B", Price: 100},
			{Symbol: "C", Price: 20},
		},
	}

	plan := NewPlan(p)

	assert.Equal(t, []string{"A", "B", "C"}, plan.Symbols)
	assert.Equal(t, 10200.0, plan.TotalValue)

	assert.Equal(t, 5100.0, plan.Allocation["A"])
	assert.Equal(t, 5100.0, plan.CashDelta["A"])
	assert.Equal(t, 510.0, plan.SharesDelta["A"])

	assert.Equal(t, 100.0, plan.TotalShares["B"])
	assert.Equal(t, -4900.0, plan.CashDelta["B"])
	assert.Equal(t, -49.0, plan.SharesDelta["B"])

	// Held but not targeted: weight 0, everything is excess
	assert.Equal(t, 0.0, plan.Weights["C"])
	assert.Equal(t, -200.0, plan.CashDelta["C"])
	assert.Equal(t, -10.0, plan.SharesDelta["C"])
}

func TestPlan_PriceMissingPanics(t *testing.T) {
	plan := &Plan{Prices: map[string]float64{"A": 1}}
	assert.Panics(t, func() { plan.Price("B") })
}

func TestPlan_Need(t *testing.T) {
	plan := &Plan{
		TotalValue: 1000,
		Weights:    map[string]float64{"A": 0.25, "Z": 0},
	}

	need := plan.Need("A", 50)
	assert.Equal(t, "A", need.Symbol)
	assert.Equal(t, 50.0, need.CashDelta)
	assert.InDelta(t, 0.2, need.PercentageDelta, 1e-12)

	// Zero weight ranks as zero need instead of dividing by zero
	assert.Equal(t, 0.0, plan.Need("Z", -30).PercentageDelta)
	assert.Equal(t, 0.0, plan.Need("unknown", 10).PercentageDelta)

	empty := &Plan{Weights: map[string]float64{"A": 1}}
	pct := empty.Need("A", 10).PercentageDelta
	assert.False(t, math.IsNaN(pct))
	assert.Equal(t, 0.0, pct)
}

func TestNeedQueue_Order(t *testing.T) {
	queue := NewNeedQueue()
	queue.Push(Needed{Symbol: "C", PercentageDelta: 0.5})
	queue.Push(Needed{Symbol: "B", PercentageDelta: 0.9})
	queue.Push(Needed{Symbol: "A", PercentageDelta: 0.5})
	queue.Push(Needed{Symbol: "D", PercentageDelta: -1})
	queue.Push(Needed{Symbol: "E", PercentageDelta: 0.9})

	var got []string
	for queue.Len() > 0 {
		got = append(got, queue.Pop().Symbol)
	}

	assert.Equal(t, []string{"B", "E", "A", "C", "D"}, got)
}

func TestYieldMedian(t *testing.T) {
	tests := []struct {
		name   string
		yields map[string]float64
		want   float64
		ok     bool
	}{
		{"empty", map[string]float64{}, 0, false},
		{"single", map[string]float64{"A": 0.03}, 0.03, true},
		{"odd", map[string]float64{"A": 0.01, "B": 0.05, "C": 0.02}, 0.02, true},
		{"even", map[string]float64{"A": 0.04, "B": 0.01}, 0.025, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := yieldMedian(tt.yields)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestHighYieldSet(t *testing.T) {
	p := &contracts.Portfolio{
		Market: []contracts.MarketEntry{
			{Symbol: "A", Price: 1, DivYield: contracts.Float64(0.04)},
			{Symbol: "B", Price: 1, DivYield: contracts.Float64(0.01)},
			{Symbol: "C", Price: 1, DivYield: contracts.Float64(0.02)},
			{Symbol: "N", Price: 1},
		},
	}

	set := highYieldSet(p, []string{"A", "B", "C", "N"})
	assert.Equal(t, map[string]bool{"A": true}, set)

	// No yield data: nothing is high-yield
	none := &contracts.Portfolio{Market: []contracts.MarketEntry{{Symbol: "A", Price: 1}}}
	assert.Empty(t, highYieldSet(none, []string{"A"}))
}

func TestSellOrder(t *testing.T) {
	accounts := []contracts.Account{
		{Name: "t1"},
		{Name: "s1", TaxSheltered: true},
		{Name: "t2"},
		{Name: "s2", TaxSheltered: true},
	}

	var names []string
	for _, acct := range sellOrder(accounts) {
		names = append(names, acct.Name)
	}
	assert.Equal(t, []string{"s1", "s2", "t1", "t2"}, names)
	assert.Equal(t, "t1", accounts[0].Name, "input order untouched")
}

func TestFillSymbols(t *testing.T) {
	plan := &Plan{
		Symbols: []string{"A", "B", "C", "D"},
		Weights: map[string]float64{"A": 0.3, "B": 0.3, "C": 0, "D": 0.4},
		Prices:  map[string]float64{"A": 10, "B": 50, "C": 500, "D": 10},
	}

	// Zero-weight C is swept too; A and D tie on price and fall back to name order
	require.Equal(t, []string{"C", "B", "A", "D"}, fillSymbols(plan))
	assert.Equal(t, []string{"A", "B", "C", "D"}, plan.Symbols, "plan order untouched")
}
