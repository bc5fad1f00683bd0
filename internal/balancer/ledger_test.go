package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfbalancer/internal/contracts"
)

func TestNewLedger_CopiesAccounts(t *testing.T) {
	accounts := []contracts.Account{
		{Name: "ira", TaxSheltered: true, Cash: 100, Positions: map[string]float64{"A": 5}},
		{Name: "taxable", Cash: 20},
	}

	ledger := NewLedger(accounts)
	ledger.Transact("ira", "A", 3)
	ledger.BuyMaybe("taxable", "B", 10, 2)

	assert.Equal(t, 5.0, accounts[0].Positions["A"], "input positions must not change")
	assert.Equal(t, 20.0, accounts[1].Cash, "input cash must not change")
	assert.Equal(t, 8.0, ledger.Shares("ira", "A"))
	assert.Equal(t, 0.0, ledger.Cash("taxable"))
}

func TestNewLedger_MergesDuplicateNames(t *testing.T) {
	ledger := NewLedger([]contracts.Account{
		{Name: "x", Cash: 10, Positions: map[string]float64{"A": 1}},
		{Name: "x", Cash: 5, Positions: map[string]float64{"A": 2}},
	})

	assert.Equal(t, 15.0, ledger.Cash("x"))
	assert.Equal(t, 3.0, ledger.Shares("x", "A"))
}

func TestLedger_BuyMaybe(t *testing.T) {
	ledger := NewLedger([]contracts.Account{{Name: "a", Cash: 100}})

	// Exactly affordable
	require.True(t, ledger.BuyMaybe("a", "A", 10, 10))
	assert.Equal(t, 0.0, ledger.Cash("a"))
	assert.Equal(t, 10.0, ledger.Shares("a", "A"))

	// One cent short: no partial fill
	assert.False(t, ledger.BuyMaybe("a", "A", 10, 1))
	assert.Equal(t, 10.0, ledger.Shares("a", "A"))

	// Sells are negative buys
	require.True(t, ledger.BuyMaybe("a", "A", 10, -4))
	assert.Equal(t, 40.0, ledger.Cash("a"))
	assert.Equal(t, 6.0, ledger.Shares("a", "A"))
}

func TestLedger_BuyMaybe_NegativeCash(t *testing.T) {
	ledger := NewLedger([]contracts.Account{
		{Name: "margin", Cash: -50, Positions: map[string]float64{"A": 10}},
	})

	// The affordability rule is applied literally: proceeds of -10 still exceed -50
	assert.False(t, ledger.BuyMaybe("margin", "A", 10, -1))
	assert.False(t, ledger.BuyMaybe("margin", "A", 10, 1))

	// A sale large enough to clear the debt goes through
	assert.True(t, ledger.BuyMaybe("margin", "A", 10, -6))
	assert.Equal(t, 10.0, ledger.Cash("margin"))
	assert.Equal(t, 4.0, ledger.Shares("margin", "A"))
}

func TestLedger_Transact(t *testing.T) {
	ledger := NewLedger([]contracts.Account{
		{Name: "a", Positions: map[string]float64{"A": 5}},
	})

	assert.Equal(t, 7.0, ledger.Transact("a", "A", 2))
	assert.Equal(t, 0.0, ledger.Transact("a", "A", -100), "clamped at zero")
	assert.Equal(t, 0.0, ledger.Shares("a", "A"))

	// Reads never create entries
	assert.Equal(t, 0.0, ledger.Transact("ghost", "Z", 0))
	_, ok := ledger.Results().Positions["ghost"]
	assert.False(t, ok)
	_, ok = ledger.Results().Positions["a"]["Z"]
	assert.False(t, ok)

	// Writes to an unknown account create it
	assert.Equal(t, 3.0, ledger.Transact("new", "B", 3))
	assert.Equal(t, 3.0, ledger.Results().Positions["new"]["B"])
}

func TestLedger_CalculatePercentages(t *testing.T) {
	ledger := NewLedger([]contracts.Account{
		{Name: "a", Cash: 50, Positions: map[string]float64{"A": 5}},
		{Name: "b", Cash: 50, Positions: map[string]float64{"A": 5, "B": 0}},
	})

	ledger.CalculatePercentages(map[string]float64{"A": 10})
	results := ledger.Results()

	assert.Equal(t, 100.0, results.TotalCash)
	assert.InDelta(t, 0.5, results.Allocations["A"], 1e-12)
	assert.InDelta(t, 0.5, results.Allocations[contracts.CashKey], 1e-12)
	_, ok := results.Allocations["B"]
	assert.False(t, ok, "zero positions are not reported")
	assert.InDelta(t, 1.0, results.AllocationSum(), 1e-9)
}

func TestLedger_CalculatePercentages_ZeroTotal(t *testing.T) {
	ledger := NewLedger([]contracts.Account{{Name: "empty"}})
	ledger.CalculatePercentages(map[string]float64{})

	assert.Equal(t, 0.0, ledger.Results().TotalCash)
	assert.Empty(t, ledger.Results().Allocations)
}

func TestLedger_CalculatePercentages_MissingPricePanics(t *testing.T) {
	ledger := NewLedger([]contracts.Account{
		{Name: "a", Positions: map[string]float64{"X": 1}},
	})

	assert.Panics(t, func() {
		ledger.CalculatePercentages(map[string]float64{"A": 10})
	})
}
