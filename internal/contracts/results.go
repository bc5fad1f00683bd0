package contracts

// CashKey is the synthetic allocation key holding the cash percentage
const CashKey = "cash"

// Results is the rebalance outcome
// ⭐ SSOT: 리밸런싱 출력 계약
type Results struct {
	Positions   map[string]map[string]float64 `json:"positions" yaml:"positions"`
	Cash        map[string]float64            `json:"cash" yaml:"cash"`
	TotalCash   float64                       `json:"total_cash" yaml:"total_cash"`
	Allocations map[string]float64            `json:"allocations" yaml:"allocations"`
	Orders      []Order                       `json:"orders" yaml:"orders"`
}

// NewResults creates an empty Results
func NewResults() *Results {
	return &Results{
		Positions:   make(map[string]map[string]float64),
		Cash:        make(map[string]float64),
		Allocations: make(map[string]float64),
		Orders:      make([]Order, 0),
	}
}

// TotalShares returns the number of shares of symbol held across all accounts
func (r *Results) TotalShares(symbol string) float64 {
	total := 0.0
	for _, positions := range r.Positions {
		total += positions[symbol]
	}
	return total
}

// AllocationSum returns the sum of all allocation percentages (cash included)
func (r *Results) AllocationSum() float64 {
	sum := 0.0
	for _, pct := range r.Allocations {
		sum += pct
	}
	return sum
}
