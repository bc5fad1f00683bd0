package quotes

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/httputil"
	"github.com/wonny/etfbalancer/pkg/logger"
	"github.com/wonny/etfbalancer/pkg/redis"
)

// YahooClient fetches prices and trailing dividend yields from a Yahoo Finance style
// quote endpoint (GET {base}/v7/finance/quote?symbols=A,B)
// ⭐ SSOT: 시세 조회는 이 클라이언트에서만
type YahooClient struct {
	http    *httputil.Client
	baseURL string
	cache   *redis.Cache
	logger  *logger.Logger
}

// quoteResponse is the subset of the quote API response we read
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                      string   `json:"symbol"`
			RegularMarketPrice          float64  `json:"regularMarketPrice"`
			TrailingAnnualDividendYield *float64 `json:"trailingAnnualDividendYield"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// NewYahooClient creates a quote client. cache may wrap a disabled Redis client.
func NewYahooClient(httpClient *httputil.Client, baseURL string, cache *redis.Cache, log *logger.Logger) *YahooClient {
	return &YahooClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		logger:  log.Component("quotes"),
	}
}

// Quotes returns one market entry per symbol the endpoint knows, in request order.
// Cached quotes are served without a request.
func (c *YahooClient) Quotes(ctx context.Context, symbols []string) ([]contracts.MarketEntry, error) {
	found := make(map[string]contracts.MarketEntry, len(symbols))
	missing := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		var entry contracts.MarketEntry
		hit, err := c.cache.Get(ctx, redis.QuoteKey(symbol), &entry)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote cache read failed")
		}
		if hit {
			found[symbol] = entry
			continue
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 {
		fetched, err := c.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, entry := range fetched {
			found[entry.Symbol] = entry
			if err := c.cache.Set(ctx, redis.QuoteKey(entry.Symbol), entry, redis.TTLQuote); err != nil {
				c.logger.WithError(err).WithField("symbol", entry.Symbol).Warn("Quote cache write failed")
			}
		}
	}

	entries := make([]contracts.MarketEntry, 0, len(found))
	for _, symbol := range symbols {
		if entry, ok := found[symbol]; ok {
			entries = append(entries, entry)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"fetched":   len(missing),
		"returned":  len(entries),
	}).Debug("Quotes loaded")

	return entries, nil
}

// fetch requests quotes for symbols in one call
func (c *YahooClient) fetch(ctx context.Context, symbols []string) ([]contracts.MarketEntry, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	var resp quoteResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	if apiErr := resp.QuoteResponse.Error; apiErr != nil {
		return nil, fmt.Errorf("quote api error %s: %s", apiErr.Code, apiErr.Description)
	}

	entries := make([]contracts.MarketEntry, 0, len(resp.QuoteResponse.Result))
	for _, q := range resp.QuoteResponse.Result {
		if q.RegularMarketPrice <= 0 {
			continue
		}
		entries = append(entries, contracts.MarketEntry{
			Symbol:   q.Symbol,
			Price:    q.RegularMarketPrice,
			DivYield: q.TrailingAnnualDividendYield,
		})
	}
	return entries, nil
}
