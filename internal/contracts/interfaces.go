package contracts

import "context"

// Balancer computes a rebalance from a validated portfolio
// ⭐ SSOT: 리밸런싱 인터페이스
type Balancer interface {
	Balance(p *Portfolio) *Results
}

// QuoteSource provides market entries for a set of symbols
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) ([]MarketEntry, error)
}

// RunRecorder persists rebalance runs
type RunRecorder interface {
	Record(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
