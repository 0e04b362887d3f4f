// Package coinlist fetches and caches the market-cap-ranked coin universe
// that seeds the hot list.
package coinlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"coinhawk/internal/model"
)

const (
	defaultAPI = "https://api.coingecko.com/api/v3"
	perPage    = 250 // CoinGecko max per page

	maxRetries = 3
)

// Variables so tests can shorten the waits.
var (
	retryDelay    = 3 * time.Second
	rateLimitWait = 60 * time.Second
	pageDelay     = 2 * time.Second
)

// Service fetches the top-N coins by market cap from the CoinGecko free
// API, caching the result for a TTL and falling back to a static list of
// majors when the API is unreachable.
type Service struct {
	baseURL string
	topN    int
	ttl     time.Duration
	client  *http.Client
	logger  *slog.Logger

	mu        sync.RWMutex
	coins     []model.Coin
	fetchedAt time.Time
}

// New creates a Service. An empty baseURL selects the public CoinGecko API.
func New(baseURL string, topN int, ttl time.Duration, logger *slog.Logger) *Service {
	if baseURL == "" {
		baseURL = defaultAPI
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		topN:    topN,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type cgMarket struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

// TopCoins returns the cached universe, refreshing it from CoinGecko when
// stale. On total fetch failure a previously cached list is reused; with
// nothing cached the static fallback list is served instead.
func (s *Service) TopCoins(ctx context.Context) ([]model.Coin, error) {
	s.mu.RLock()
	if len(s.coins) > 0 && time.Since(s.fetchedAt) < s.ttl {
		coins := s.coins
		s.mu.RUnlock()
		return coins, nil
	}
	s.mu.RUnlock()

	coins, err := s.fetchAll(ctx)
	if err != nil {
		s.logger.Error("failed to fetch coin list", "error", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.coins) == 0 {
			s.logger.Warn("using fallback coin list")
			s.coins = fallbackCoins()
			s.fetchedAt = time.Now()
		}
		return s.coins, nil
	}

	s.mu.Lock()
	s.coins = coins
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("fetched coin universe", "count", len(coins))
	return coins, nil
}

// Symbols returns the universe as bare base-asset symbols.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	coins, err := s.TopCoins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.Symbol
	}
	return out, nil
}

func (s *Service) fetchAll(ctx context.Context) ([]model.Coin, error) {
	pages := (s.topN + perPage - 1) / perPage
	coins := make([]model.Coin, 0, s.topN)

	for page := 1; page <= pages; page++ {
		pageCoins, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("coinlist page %d: %w", page, err)
		}
		for i, c := range pageCoins {
			coins = append(coins, model.Coin{
				Symbol:    strings.ToUpper(c.Symbol),
				Name:      c.Name,
				MarketCap: c.MarketCap,
				Rank:      (page-1)*perPage + i + 1,
			})
		}
		if page < pages {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pageDelay):
			}
		}
	}

	if len(coins) > s.topN {
		coins = coins[:s.topN]
	}
	return coins, nil
}

// fetchPage requests one page of markets, retrying on failure and backing
// off longer when rate limited.
func (s *Service) fetchPage(ctx context.Context, page int) ([]cgMarket, error) {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=%d&sparkline=false",
		s.baseURL, perPage, page)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		rows, status, err := s.get(ctx, url)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		wait := retryDelay
		if status == http.StatusTooManyRequests {
			s.logger.Warn("coinlist rate limited, backing off", "wait", rateLimitWait)
			wait = rateLimitWait
		} else {
			s.logger.Warn("coinlist request failed, retrying", "attempts_left", maxRetries-attempt-1, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (s *Service) get(ctx context.Context, url string) ([]cgMarket, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var rows []cgMarket
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, resp.StatusCode, err
	}
	return rows, resp.StatusCode, nil
}

// fallbackCoins is the static list of major coins served when the API is
// down on a cold start.
func fallbackCoins() []model.Coin {
	majors := []string{
		"BTC", "ETH", "BNB", "SOL", "XRP", "DOGE", "ADA", "TRX", "AVAX", "SHIB",
		"DOT", "LINK", "MATIC", "UNI", "LTC", "BCH", "XLM", "ATOM", "ETC", "XMR",
		"APT", "FIL", "ARB", "OP", "NEAR", "VET", "ALGO", "ICP", "HBAR", "GRT",
		"SAND", "MANA", "AAVE", "QNT", "AXS", "EOS", "FTM", "MKR", "SNX", "RUNE",
		"THETA", "XTZ", "FLOW", "CHZ", "ZEC", "EGLD", "CAKE", "NEO", "MINA", "GALA",
		"CRV", "LDO", "IMX", "DYDX", "GMX", "COMP", "ENJ", "BAT", "ZIL", "DASH",
		"INJ", "TIA", "FET", "RNDR", "PEPE", "WOO", "MAGIC", "PENDLE", "SUI", "SEI",
	}
	coins := make([]model.Coin, len(majors))
	for i, sym := range majors {
		coins[i] = model.Coin{
			Symbol: sym,
			Name:   sym,
			Rank:   i + 1,
		}
	}
	return coins
}
