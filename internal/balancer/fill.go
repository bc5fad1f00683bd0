package balancer

import (
	"sort"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// fillSymbols returns every planned symbol ordered by price, most expensive first.
// Target weights play no part here.
func fillSymbols(plan *Plan) []string {
	symbols := append([]string(nil), plan.Symbols...)

	sort.SliceStable(symbols, func(i, j int) bool {
		pi, pj := plan.Price(symbols[i]), plan.Price(symbols[j])
		if pi != pj {
			return pi > pj
		}
		return symbols[i] < symbols[j]
	})
	return symbols
}

// fillSpareCash sweeps all symbols repeatedly, buying at most one share per symbol
// per sweep in the first account that can afford it, until a sweep buys nothing.
// Cash no account can spend on a whole share stays idle.
func fillSpareCash(p *contracts.Portfolio, plan *Plan, ledger *Ledger) float64 {
	symbols := fillSymbols(plan)
	bought := 0.0

	for {
		sweep := 0.0
		for _, symbol := range symbols {
			if buyOne(ledger, p.Accounts, symbol, plan.Price(symbol)) {
				sweep++
			}
		}
		if sweep == 0 {
			break
		}
		bought += sweep
	}

	return bought
}
