package exchange

import (
	"context"

	"coinhawk/internal/model"
)

// Client defines the standard interface for all exchange clients.
type Client interface {
	Name() string
	// Ticker fetches the venue's current quote for the pair over REST.
	Ticker(ctx context.Context, pair string) (model.Quote, error)
	// OrderBook fetches the top of the venue's book for the pair.
	OrderBook(ctx context.Context, pair string) (model.OrderBook, error)
	// TradingFeePercent is the venue's taker fee in percent (0.1 = 0.1%).
	TradingFeePercent() float64
	// WithdrawalFee returns the fee for withdrawing the asset, quoted in
	// units of that asset. ok is false when the venue has no entry for it.
	WithdrawalFee(asset string) (fee float64, ok bool)
	// StreamTicks subscribes to the venue's ticker feed and pushes quotes
	// onto out until the context is cancelled. It reconnects with backoff
	// on any stream failure.
	StreamTicks(ctx context.Context, pair string, out chan<- model.Quote) error
}
