package quotes

import (
	"context"
	"fmt"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// Refresh replaces the market snapshot of p with fresh quotes for every targeted or held
// symbol. Entries the source does not return are kept as they were.
// Returns the number of refreshed symbols.
func Refresh(ctx context.Context, src contracts.QuoteSource, p *contracts.Portfolio) (int, error) {
	symbols := p.Symbols()
	if len(symbols) == 0 {
		return 0, nil
	}

	fresh, err := src.Quotes(ctx, symbols)
	if err != nil {
		return 0, fmt.Errorf("refresh quotes: %w", err)
	}

	index := make(map[string]int, len(p.Market))
	for i, entry := range p.Market {
		index[entry.Symbol] = i
	}

	for _, entry := range fresh {
		if i, ok := index[entry.Symbol]; ok {
			// 기존 배당수익률 유지 (새 시세에 없으면)
			if entry.DivYield == nil {
				entry.DivYield = p.Market[i].DivYield
			}
			p.Market[i] = entry
			continue
		}
		index[entry.Symbol] = len(p.Market)
		p.Market = append(p.Market, entry)
	}

	return len(fresh), nil
}
