package contracts

import "time"

// Run is one recorded rebalance: the request, its result and where it came from
type Run struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"` // api, cli, scheduler
	Portfolio  *Portfolio `json:"portfolio"`
	Results    *Results   `json:"results"`
	TotalValue float64    `json:"total_value"`
	TotalCash  float64    `json:"total_cash"`
	OrderCount int        `json:"order_count"`
	DurationMs int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RunSummary is the list view of a Run
type RunSummary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	TotalValue float64   `json:"total_value"`
	TotalCash  float64   `json:"total_cash"`
	OrderCount int       `json:"order_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the list view of the run
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Source:     r.Source,
		TotalValue: r.TotalValue,
		TotalCash:  r.TotalCash,
		OrderCount: r.OrderCount,
		DurationMs: r.DurationMs,
		CreatedAt:  r.CreatedAt,
	}
}
