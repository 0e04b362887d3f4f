package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"coinhawk/internal/exchange"
	"coinhawk/internal/model"
)

// Conservative defaults assumed for venues without configuration: taker fee
// in percent, withdrawal fee in units of the withdrawn asset.
const (
	defaultTakerFeePercent    = 0.2
	defaultWithdrawalFeeUnits = 0.001
)

var errCacheMiss = errors.New("quote not cached")

// Store supplies quotes, order books and fee data across all configured
// venues. The freshest quote per venue and pair is kept in redis with a
// short TTL, written by the websocket ticker streams; a cache miss falls
// back to the venue's REST ticker.
type Store struct {
	rdb     *redis.Client
	clients map[string]exchange.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewStore creates a Store over the given venue clients.
func NewStore(rdb *redis.Client, clients map[string]exchange.Client, quoteTTL time.Duration, logger *slog.Logger) *Store {
	return &Store{
		rdb:     rdb,
		clients: clients,
		ttl:     quoteTTL,
		logger:  logger,
	}
}

func quoteKey(exchangeName, pair string) string {
	return "quotes:" + exchangeName + ":" + pair
}

// PutQuote caches a quote as the venue's latest for its pair.
func (s *Store) PutQuote(ctx context.Context, q model.Quote) error {
	key := quoteKey(q.Exchange, q.Symbol)
	if err := s.rdb.HSet(ctx, key, map[string]interface{}{
		"price":  q.Price,
		"volume": q.Volume24h,
		"ts_ms":  q.Timestamp.UnixMilli(),
		"venue":  string(q.Venue),
	}).Err(); err != nil {
		return fmt.Errorf("cache quote %s: %w", key, err)
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

func (s *Store) cachedQuote(ctx context.Context, exchangeName, pair string) (model.Quote, error) {
	vals, err := s.rdb.HGetAll(ctx, quoteKey(exchangeName, pair)).Result()
	if err != nil {
		return model.Quote{}, err
	}
	if len(vals) == 0 {
		return model.Quote{}, errCacheMiss
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("cached quote %s/%s: parse price: %w", exchangeName, pair, err)
	}
	volume, _ := strconv.ParseFloat(vals["volume"], 64)
	tsMs, _ := strconv.ParseInt(vals["ts_ms"], 10, 64)

	return model.Quote{
		Exchange:  exchangeName,
		Symbol:    pair,
		Price:     price,
		Volume24h: volume,
		Timestamp: time.UnixMilli(tsMs),
		Venue:     model.VenueType(vals["venue"]),
	}, nil
}

// QuotesAcrossVenues returns the freshest quote for the pair from every
// venue that has one. Venues that fail both the cache and the REST fallback
// are skipped; an error is returned only when no venue produced a quote and
// at least one failed hard.
func (s *Store) QuotesAcrossVenues(ctx context.Context, pair string) ([]model.Quote, error) {
	names := make([]string, 0, len(s.clients))
	for name := range s.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		out      []model.Quote
		firstErr error
	)
	for _, name := range names {
		q, err := s.cachedQuote(ctx, name, pair)
		if err == nil {
			out = append(out, q)
			continue
		}
		if !errors.Is(err, errCacheMiss) {
			s.logger.Debug("quote cache read failed", "exchange", name, "pair", pair, "error", err)
		}

		q, err = s.clients[name].Ticker(ctx, pair)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Debug("no quote from venue", "exchange", name, "pair", pair, "error", err)
			continue
		}
		if cacheErr := s.PutQuote(ctx, q); cacheErr != nil {
			s.logger.Debug("failed to cache quote", "exchange", name, "error", cacheErr)
		}
		out = append(out, q)
	}

	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// FetchOrderBook returns the current book for the pair on one venue.
func (s *Store) FetchOrderBook(ctx context.Context, exchangeName, pair string) (model.OrderBook, error) {
	c, ok := s.clients[exchangeName]
	if !ok {
		return model.OrderBook{}, fmt.Errorf("unknown exchange: %s", exchangeName)
	}
	return c.OrderBook(ctx, pair)
}

// TradingFeeRate returns the venue's taker fee as a fraction. Unknown
// venues get a conservative default.
func (s *Store) TradingFeeRate(exchangeName string) float64 {
	c, ok := s.clients[exchangeName]
	if !ok {
		return defaultTakerFeePercent / 100
	}
	return c.TradingFeePercent() / 100
}

// WithdrawalFee returns the fee for withdrawing the asset from the venue,
// in units of the asset. An unknown venue or missing fee entry gets a
// conservative default rather than a free withdrawal.
func (s *Store) WithdrawalFee(exchangeName, baseAsset string) float64 {
	c, ok := s.clients[exchangeName]
	if !ok {
		return defaultWithdrawalFeeUnits
	}
	fee, ok := c.WithdrawalFee(baseAsset)
	if !ok {
		s.logger.Debug("no withdrawal fee entry", "exchange", exchangeName, "asset", baseAsset)
		return defaultWithdrawalFeeUnits
	}
	return fee
}
