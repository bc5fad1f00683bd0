package contracts

import (
	"errors"
	"math"
	"sort"
)

// Validation diagnostics returned by Portfolio.Validate
// ⭐ 고정 메시지: API 응답에 그대로 노출됨
var (
	ErrAllocationSum = errors.New("Allocations must add up to 1.0")
	ErrMissingPrices = errors.New("Missing prices for some investments")
)

// AllocationTolerance is the allowed deviation of the target weight sum from 1.0
const AllocationTolerance = 0.01

// Portfolio is the rebalance request: target weights, accounts and a market snapshot
// ⭐ SSOT: 리밸런싱 입력 계약
type Portfolio struct {
	Target         map[string]float64 `json:"target" yaml:"target"`
	Accounts       []Account          `json:"accounts" yaml:"accounts"`
	Market         []MarketEntry      `json:"market" yaml:"market"`
	NoTaxedSales   *bool              `json:"no_taxed_sales,omitempty" yaml:"no_taxed_sales,omitempty"`
	NoSaleAccounts []string           `json:"no_sale_accounts,omitempty" yaml:"no_sale_accounts,omitempty"`
}

// Account is a single brokerage account inside a portfolio
type Account struct {
	Name         string             `json:"name" yaml:"name"`
	TaxSheltered bool               `json:"tax_sheltered" yaml:"tax_sheltered"`
	Cash         float64            `json:"cash" yaml:"cash"` // 음수 허용 (margin)
	Positions    map[string]float64 `json:"positions" yaml:"positions"`
}

// MarketEntry is the price (and optional dividend yield) of one symbol
type MarketEntry struct {
	Symbol   string   `json:"symbol" yaml:"symbol"`
	Price    float64  `json:"price" yaml:"price"`
	DivYield *float64 `json:"div_yield,omitempty" yaml:"div_yield,omitempty"`
}

// Validate performs the pre-flight checks the balancer relies on.
// Returns ErrAllocationSum or ErrMissingPrices, allocation sum checked first.
func (p *Portfolio) Validate() error {
	sum := 0.0
	for _, weight := range p.Target {
		sum += weight
	}
	// NaN fails every comparison, so test for the good case
	if !(math.Abs(sum-1.0) <= AllocationTolerance) {
		return ErrAllocationSum
	}

	prices := p.Prices()
	for _, symbol := range p.Symbols() {
		if price, ok := prices[symbol]; !ok || !usablePrice(price) {
			return ErrMissingPrices
		}
	}

	return nil
}

// usablePrice reports whether price is a finite positive number
func usablePrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 1)
}

// Symbols returns every symbol that is either targeted or held, sorted
func (p *Portfolio) Symbols() []string {
	seen := make(map[string]struct{})
	for symbol := range p.Target {
		seen[symbol] = struct{}{}
	}
	for _, acct := range p.Accounts {
		for symbol := range acct.Positions {
			seen[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Prices returns symbol → price from the market snapshot.
// Later duplicates win.
func (p *Portfolio) Prices() map[string]float64 {
	prices := make(map[string]float64, len(p.Market))
	for _, entry := range p.Market {
		prices[entry.Symbol] = entry.Price
	}
	return prices
}

// Yields returns symbol → dividend yield for entries that carry one
func (p *Portfolio) Yields() map[string]float64 {
	yields := make(map[string]float64)
	for _, entry := range p.Market {
		if entry.DivYield != nil {
			yields[entry.Symbol] = *entry.DivYield
		}
	}
	return yields
}

// TaxedSalesAllowed reports whether taxable accounts may sell (default: allowed)
func (p *Portfolio) TaxedSalesAllowed() bool {
	return p.NoTaxedSales == nil || !*p.NoTaxedSales
}

// IsNoSale reports whether the named account is exempt from selling
func (p *Portfolio) IsNoSale(name string) bool {
	for _, n := range p.NoSaleAccounts {
		if n == name {
			return true
		}
	}
	return false
}

// TotalValue returns the sum of all account values at the snapshot prices
func (p *Portfolio) TotalValue() float64 {
	prices := p.Prices()
	total := 0.0
	for i := range p.Accounts {
		total += p.Accounts[i].Value(prices)
	}
	return total
}

// Value returns cash plus the market value of positions.
// Positions without a known price contribute nothing.
func (a *Account) Value(prices map[string]float64) float64 {
	value := a.Cash
	for symbol, shares := range a.Positions {
		if price, ok := prices[symbol]; ok {
			value += shares * price
		}
	}
	return value
}

// Float64 is a small helper for building optional yields in literals
func Float64(v float64) *float64 {
	return &v
}

// Bool is a small helper for building optional flags in literals
func Bool(v bool) *bool {
	return &v
}
