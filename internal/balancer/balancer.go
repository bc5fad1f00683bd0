package balancer

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/logger"
)

// Balancer runs the rebalance phases over a validated portfolio
// ⭐ SSOT: 리밸런싱 알고리즘은 이 패키지에서만
type Balancer struct {
	logger *logger.Logger
}

// New creates a new balancer
func New(log *logger.Logger) *Balancer {
	return &Balancer{logger: log.Component("balancer")}
}

// Balance computes per-account trades that move p toward its target.
// p must already pass Validate; it is not modified.
func (b *Balancer) Balance(p *contracts.Portfolio) *contracts.Results {
	start := time.Now()

	// 1. Deltas
	plan := NewPlan(p)
	ledger := NewLedger(p.Accounts)
	b.logger.WithFields(map[string]interface{}{
		"symbols":     len(plan.Symbols),
		"total_value": plan.TotalValue,
	}).Debug("Plan computed")

	// 2. Sell overweight
	sold := sellOverweight(p, plan, ledger)
	b.logger.WithField("shares", sold).Debug("Sell phase done")

	// 3. Buy by relative need
	bought := buyNeeded(p, plan, ledger)
	b.logger.WithField("shares", bought).Debug("Buy phase done")

	// 4. Spend what is left
	filled := fillSpareCash(p, plan, ledger)
	b.logger.WithField("shares", filled).Debug("Fill phase done")

	// 5. Report
	ledger.CalculatePercentages(plan.Prices)
	results := ledger.Results()
	results.Orders = Orders(p, results)
	b.logger.WithFields(map[string]interface{}{
		"allocation_sum": results.AllocationSum(),
		"orders":         len(results.Orders),
	}).Debug("Report built")

	b.logger.WithFields(map[string]interface{}{
		"accounts":    len(p.Accounts),
		"symbols":     len(plan.Symbols),
		"total_value": plan.TotalValue,
		"sold":        sold,
		"bought":      bought,
		"filled":      filled,
		"total_cash":  results.TotalCash,
		"orders":      len(results.Orders),
		"duration":    time.Since(start),
	}).Info("Rebalance completed")

	return results
}

// Orders derives the net per-account orders between the input holdings and the result
func Orders(p *contracts.Portfolio, results *contracts.Results) []contracts.Order {
	prices := p.Prices()
	orders := make([]contracts.Order, 0)
	seenAccount := make(map[string]bool)

	for _, acct := range p.Accounts {
		if seenAccount[acct.Name] {
			continue
		}
		seenAccount[acct.Name] = true

		before := make(map[string]float64)
		for _, a := range p.Accounts {
			if a.Name != acct.Name {
				continue
			}
			for symbol, shares := range a.Positions {
				before[symbol] += shares
			}
		}
		after := results.Positions[acct.Name]

		symbols := make([]string, 0, len(before)+len(after))
		for symbol := range before {
			symbols = append(symbols, symbol)
		}
		for symbol := range after {
			if _, ok := before[symbol]; !ok {
				symbols = append(symbols, symbol)
			}
		}
		sort.Strings(symbols)

		for _, symbol := range symbols {
			diff := after[symbol] - before[symbol]
			if math.Abs(diff) < needEpsilon {
				continue
			}

			order := contracts.Order{
				Account: acct.Name,
				Symbol:  symbol,
				Side:    contracts.OrderSideBuy,
				Qty:     math.Abs(diff),
				Price:   prices[symbol],
			}
			if diff < 0 {
				order.Side = contracts.OrderSideSell
			}
			order.Value = order.Qty * order.Price
			orders = append(orders, order)
		}
	}

	return orders
}
