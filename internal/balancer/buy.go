package balancer

import (
	"sort"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// needEpsilon is the dollar need below which a symbol counts as satisfied
const needEpsilon = 1e-6

// yieldMedian returns the median of all known yields; ok is false without yield data
func yieldMedian(yields map[string]float64) (median float64, ok bool) {
	if len(yields) == 0 {
		return 0, false
	}

	values := make([]float64, 0, len(yields))
	for _, y := range yields {
		values = append(values, y)
	}
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid], true
	}
	return (values[mid-1] + values[mid]) / 2, true
}

// highYieldSet returns the symbols whose yield is strictly above the market median.
// Symbols without a yield count as 0.
func highYieldSet(p *contracts.Portfolio, symbols []string) map[string]bool {
	yields := p.Yields()
	median, ok := yieldMedian(yields)

	set := make(map[string]bool)
	if !ok {
		return set
	}
	for _, symbol := range symbols {
		if yields[symbol] > median {
			set[symbol] = true
		}
	}
	return set
}

// buyOne buys a single share in the first account (in order) that can afford it
func buyOne(ledger *Ledger, accounts []contracts.Account, symbol string, price float64) bool {
	for _, acct := range accounts {
		if ledger.BuyMaybe(acct.Name, symbol, price, 1) {
			return true
		}
	}
	return false
}

// splitAccounts partitions accounts by tax treatment, keeping input order
func splitAccounts(accounts []contracts.Account) (sheltered, taxable []contracts.Account) {
	for _, acct := range accounts {
		if acct.TaxSheltered {
			sheltered = append(sheltered, acct)
		} else {
			taxable = append(taxable, acct)
		}
	}
	return sheltered, taxable
}

// buyNeeded spends cash one share at a time on the most underweight symbol, re-ranking
// after every purchase. High-yield symbols go to tax-sheltered accounts first.
// Returns the number of shares bought.
func buyNeeded(p *contracts.Portfolio, plan *Plan, ledger *Ledger) float64 {
	sheltered, taxable := splitAccounts(p.Accounts)
	highYield := highYieldSet(p, plan.Symbols)

	queue := NewNeedQueue()
	for _, symbol := range plan.Symbols {
		queue.Push(plan.Need(symbol, plan.CashDelta[symbol]))
	}

	bought := 0.0
	for queue.Len() > 0 {
		need := queue.Pop()
		price := plan.Price(need.Symbol)
		if need.CashDelta/price <= 0 {
			continue
		}

		ok := false
		if highYield[need.Symbol] {
			ok = buyOne(ledger, sheltered, need.Symbol, price)
		}
		if !ok {
			ok = buyOne(ledger, taxable, need.Symbol, price)
		}
		if !ok && !highYield[need.Symbol] {
			ok = buyOne(ledger, sheltered, need.Symbol, price)
		}
		if !ok {
			// 현금 부족: 미충족 수요로 남김
			continue
		}

		bought++
		if remaining := need.CashDelta - price; remaining > needEpsilon {
			queue.Push(plan.Need(need.Symbol, remaining))
		}
	}

	return bought
}
