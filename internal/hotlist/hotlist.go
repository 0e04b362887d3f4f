package hotlist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"coinhawk/internal/metrics"
)

// Store keeps the rotating hot list and its historical occurrence counters
// in postgres. Membership expires after the configured TTL and the list is
// trimmed to a fixed size; the counters persist across restarts.
type Store struct {
	Pool *pgxpool.Pool
	size int
	ttl  time.Duration
}

// History is the accumulated arbitrage record for one symbol.
type History struct {
	Symbol           string
	Occurrences      int64
	LastSeen         time.Time
	AvgProfitPercent float64
}

// NewStore creates a Store bounded to size symbols with the given TTL.
func NewStore(pool *pgxpool.Pool, size int, ttl time.Duration) *Store {
	return &Store{Pool: pool, size: size, ttl: ttl}
}

// Migrate creates the hot list tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS hot_coins (
		symbol VARCHAR(20) PRIMARY KEY,
		reason VARCHAR(40) NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS arbitrage_history (
		symbol VARCHAR(20) PRIMARY KEY,
		occurrences BIGINT NOT NULL DEFAULT 0,
		last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		avg_profit_percent DOUBLE PRECISION NOT NULL DEFAULT 0
	);`)
	if err != nil {
		return fmt.Errorf("migrate hot list: %w", err)
	}
	return nil
}

// Add puts a symbol on the hot list, refreshing its added_at if already
// present, then trims the list back to its size bound, dropping the oldest
// entries.
func (s *Store) Add(ctx context.Context, symbol, reason string) error {
	_, err := s.Pool.Exec(ctx, `
	INSERT INTO hot_coins (symbol, reason, added_at) VALUES ($1, $2, NOW())
	ON CONFLICT (symbol) DO UPDATE SET reason = EXCLUDED.reason, added_at = NOW()`,
		symbol, reason)
	if err != nil {
		return fmt.Errorf("add hot coin %s: %w", symbol, err)
	}

	_, err = s.Pool.Exec(ctx, `
	DELETE FROM hot_coins WHERE symbol NOT IN (
		SELECT symbol FROM hot_coins ORDER BY added_at DESC LIMIT $1
	)`, s.size)
	if err != nil {
		return fmt.Errorf("trim hot list: %w", err)
	}
	return nil
}

// SymbolsToScan returns the unexpired hot symbols, most recently added
// first.
func (s *Store) SymbolsToScan(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
	SELECT symbol FROM hot_coins
	WHERE added_at > $1
	ORDER BY added_at DESC
	LIMIT $2`, time.Now().Add(-s.ttl), s.size)
	if err != nil {
		return nil, fmt.Errorf("read hot list: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("read hot list: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read hot list: %w", err)
	}

	metrics.HotListSize.Set(float64(len(symbols)))
	return symbols, nil
}

// RecordOccurrence counts one observed arbitrage for the symbol and folds
// the net profit percentage into a running average.
func (s *Store) RecordOccurrence(ctx context.Context, symbol string, netProfitPct float64) error {
	_, err := s.Pool.Exec(ctx, `
	INSERT INTO arbitrage_history (symbol, occurrences, last_seen, avg_profit_percent)
	VALUES ($1, 1, NOW(), $2)
	ON CONFLICT (symbol) DO UPDATE SET
		avg_profit_percent = (arbitrage_history.avg_profit_percent * arbitrage_history.occurrences + EXCLUDED.avg_profit_percent)
			/ (arbitrage_history.occurrences + 1),
		occurrences = arbitrage_history.occurrences + 1,
		last_seen = NOW()`,
		symbol, netProfitPct)
	if err != nil {
		return fmt.Errorf("record occurrence %s: %w", symbol, err)
	}
	return nil
}

// HistoryFor returns the accumulated record for one symbol.
func (s *Store) HistoryFor(ctx context.Context, symbol string) (History, error) {
	var h History
	err := s.Pool.QueryRow(ctx, `
	SELECT symbol, occurrences, last_seen, avg_profit_percent
	FROM arbitrage_history WHERE symbol = $1`, symbol).
		Scan(&h.Symbol, &h.Occurrences, &h.LastSeen, &h.AvgProfitPercent)
	if err != nil {
		return History{}, fmt.Errorf("history for %s: %w", symbol, err)
	}
	return h, nil
}
