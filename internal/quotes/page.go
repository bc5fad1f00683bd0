package quotes

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/httputil"
	"github.com/wonny/etfbalancer/pkg/logger"
)

// PageScraper reads quotes from one HTML page per symbol, located by CSS selectors.
// Used for brokers or fund sites that publish no JSON quote API.
type PageScraper struct {
	http          *httputil.Client
	urlTemplate   string // one %s for the symbol
	priceSelector string
	yieldSelector string // optional
	logger        *logger.Logger
}

// NewPageScraper creates an HTML quote scraper
func NewPageScraper(httpClient *httputil.Client, urlTemplate, priceSelector, yieldSelector string, log *logger.Logger) *PageScraper {
	return &PageScraper{
		http:          httpClient,
		urlTemplate:   urlTemplate,
		priceSelector: priceSelector,
		yieldSelector: yieldSelector,
		logger:        log.Component("quotes"),
	}
}

// Quotes fetches each symbol's page in turn. Symbols whose page fails or carries no
// readable price are skipped; a cancelled context stops the loop.
func (s *PageScraper) Quotes(ctx context.Context, symbols []string) ([]contracts.MarketEntry, error) {
	entries := make([]contracts.MarketEntry, 0, len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		entry, err := s.fetch(ctx, symbol)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Quote page skipped")
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// fetch reads one quote page
func (s *PageScraper) fetch(ctx context.Context, symbol string) (contracts.MarketEntry, error) {
	pageURL := fmt.Sprintf(s.urlTemplate, url.PathEscape(symbol))

	resp, err := s.http.Get(ctx, pageURL)
	if err != nil {
		return contracts.MarketEntry{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return contracts.MarketEntry{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return contracts.MarketEntry{}, fmt.Errorf("parse html: %w", err)
	}

	price, ok := parseNumber(doc.Find(s.priceSelector).First().Text())
	if !ok || price <= 0 {
		return contracts.MarketEntry{}, fmt.Errorf("no price at %q", s.priceSelector)
	}

	entry := contracts.MarketEntry{Symbol: symbol, Price: price}
	if s.yieldSelector != "" {
		text := doc.Find(s.yieldSelector).First().Text()
		if y, ok := parseNumber(text); ok {
			// "3.4%" → 0.034
			if strings.Contains(text, "%") {
				y /= 100
			}
			entry.DivYield = contracts.Float64(y)
		}
	}

	return entry, nil
}

// parseNumber reads numbers as printed on quote pages: "$1,234.56", "3.40%", "+0.5"
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "", "%", "", "+", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "N/A" {
		return 0, false
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
