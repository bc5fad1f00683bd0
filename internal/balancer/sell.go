package balancer

import (
	"math"
	"sort"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// sellOrder returns the accounts in selling order: tax-sheltered first, otherwise input order
func sellOrder(accounts []contracts.Account) []contracts.Account {
	ordered := make([]contracts.Account, len(accounts))
	copy(ordered, accounts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TaxSheltered && !ordered[j].TaxSheltered
	})
	return ordered
}

// sellOverweight liquidates whole shares of every symbol that is overweight by at least one
// share, respecting no-sale accounts and the no-taxed-sales flag.
// Returns the number of shares sold.
func sellOverweight(p *contracts.Portfolio, plan *Plan, ledger *Ledger) float64 {
	accounts := sellOrder(p.Accounts)
	taxedSales := p.TaxedSalesAllowed()
	sold := 0.0

	for _, symbol := range plan.Symbols {
		delta := plan.SharesDelta[symbol]
		if delta >= -1.0 {
			continue
		}
		price := plan.Price(symbol)

		for _, acct := range accounts {
			if delta >= -1.0 {
				break
			}
			if p.IsNoSale(acct.Name) {
				continue
			}
			if !acct.TaxSheltered && !taxedSales {
				continue
			}

			held := math.Floor(ledger.Shares(acct.Name, symbol))
			shares := math.Min(held, math.Floor(-delta))
			if shares < 1 {
				continue
			}

			if ledger.BuyMaybe(acct.Name, symbol, price, -shares) {
				delta += shares
				sold += shares
			}
		}
	}

	return sold
}
