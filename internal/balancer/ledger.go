package balancer

import (
	"fmt"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// Ledger is the only mutable state of a rebalance run.
// It owns a copy of every account's cash and positions; the input portfolio is never touched.
// ⭐ SSOT: 현금/수량 불변식은 Ledger에서만 보장
type Ledger struct {
	results *contracts.Results
}

// NewLedger creates a ledger pre-seeded with the accounts' starting cash and positions
func NewLedger(accounts []contracts.Account) *Ledger {
	results := contracts.NewResults()
	for _, acct := range accounts {
		positions, ok := results.Positions[acct.Name]
		if !ok {
			positions = make(map[string]float64, len(acct.Positions))
			results.Positions[acct.Name] = positions
		}
		for symbol, shares := range acct.Positions {
			positions[symbol] += shares
		}
		results.Cash[acct.Name] += acct.Cash
	}
	return &Ledger{results: results}
}

// Cash returns the current cash of an account
func (l *Ledger) Cash(account string) float64 {
	return l.results.Cash[account]
}

// Shares returns the current share count of symbol in account
func (l *Ledger) Shares(account, symbol string) float64 {
	return l.Transact(account, symbol, 0)
}

// BuyMaybe buys (shares > 0) or sells (shares < 0) iff price × shares does not exceed
// the account's current cash. No partial fills.
func (l *Ledger) BuyMaybe(account, symbol string, price, shares float64) bool {
	cost := price * shares
	if cost > l.results.Cash[account] {
		return false
	}

	l.results.Cash[account] -= cost
	l.Transact(account, symbol, shares)
	return true
}

// Transact moves the position unconditionally, clamping at zero, and returns the new count.
// A zero delta only reads.
func (l *Ledger) Transact(account, symbol string, shares float64) float64 {
	positions, ok := l.results.Positions[account]
	if !ok {
		if shares == 0 {
			return 0
		}
		positions = make(map[string]float64)
		l.results.Positions[account] = positions
	}

	current, held := positions[symbol]
	if shares == 0 {
		return current
	}

	next := current + shares
	if next < 0 {
		next = 0
	}
	if !held && next == 0 {
		return 0
	}
	positions[symbol] = next
	return next
}

// CalculatePercentages derives total cash and the final allocation of every symbol (plus
// "cash") as a fraction of total value. Run once, after the last trade.
// A non-zero position without a price is a broken precondition and panics.
func (l *Ledger) CalculatePercentages(prices map[string]float64) {
	totalCash := 0.0
	for _, cash := range l.results.Cash {
		totalCash += cash
	}

	values := make(map[string]float64)
	for account, positions := range l.results.Positions {
		for symbol, shares := range positions {
			if shares == 0 {
				continue
			}
			price, ok := prices[symbol]
			if !ok {
				panic(fmt.Sprintf("balancer: no price for %s held in %s", symbol, account))
			}
			values[symbol] += shares * price
		}
	}

	grandTotal := totalCash
	for _, value := range values {
		grandTotal += value
	}

	l.results.TotalCash = totalCash
	l.results.Allocations = make(map[string]float64)
	if grandTotal == 0 {
		return
	}

	for symbol, value := range values {
		l.results.Allocations[symbol] = value / grandTotal
	}
	l.results.Allocations[contracts.CashKey] = totalCash / grandTotal
}

// Results returns the ledger state
func (l *Ledger) Results() *contracts.Results {
	return l.results
}
