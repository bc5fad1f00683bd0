package balancer

import (
	"fmt"
	"math"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// Plan holds the per-symbol deltas between target and current holdings.
// Computed once from the input; the phases read it but never change it.
type Plan struct {
	Symbols     []string // target ∪ held, sorted
	TotalValue  float64
	Weights     map[string]float64
	Prices      map[string]float64
	Allocation  map[string]float64 // target dollar value
	TotalShares map[string]float64
	CashDelta   map[string]float64 // > 0: need more
	SharesDelta map[string]float64
}

// NewPlan computes the allocation deltas for a validated portfolio
func NewPlan(p *contracts.Portfolio) *Plan {
	plan := &Plan{
		Symbols:     p.Symbols(),
		Weights:     make(map[string]float64),
		Prices:      p.Prices(),
		Allocation:  make(map[string]float64),
		TotalShares: make(map[string]float64),
		CashDelta:   make(map[string]float64),
		SharesDelta: make(map[string]float64),
	}

	// 1. Total value
	for _, acct := range p.Accounts {
		plan.TotalValue += acct.Cash
		for symbol, shares := range acct.Positions {
			plan.TotalValue += shares * plan.Price(symbol)
			plan.TotalShares[symbol] += shares
		}
	}

	// 2. Deltas
	for _, symbol := range plan.Symbols {
		weight := p.Target[symbol]
		price := plan.Price(symbol)

		plan.Weights[symbol] = weight
		plan.Allocation[symbol] = weight * plan.TotalValue
		plan.CashDelta[symbol] = plan.Allocation[symbol] - plan.TotalShares[symbol]*price
		plan.SharesDelta[symbol] = plan.CashDelta[symbol] / price
	}

	return plan
}

// Price returns the snapshot price of symbol.
// Validated input always has one; a miss panics.
func (p *Plan) Price(symbol string) float64 {
	price, ok := p.Prices[symbol]
	if !ok {
		panic(fmt.Sprintf("balancer: no price for %s", symbol))
	}
	return price
}

// Need builds a Needed for symbol with the given outstanding dollar need.
// percentage_delta is the need relative to the symbol's own target value; a zero weight
// (or any degenerate division) ranks as zero need.
func (p *Plan) Need(symbol string, cashDelta float64) Needed {
	pct := 0.0
	if denom := p.Weights[symbol] * p.TotalValue; denom > 0 {
		pct = cashDelta / denom
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = 0
	}

	return Needed{
		Symbol:          symbol,
		CashDelta:       cashDelta,
		PercentageDelta: pct,
	}
}
