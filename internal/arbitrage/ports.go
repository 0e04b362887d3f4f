package arbitrage

import (
	"context"

	"coinhawk/internal/model"
)

// PriceSource supplies quotes, order books and fee data from the venues.
type PriceSource interface {
	// QuotesAcrossVenues returns the freshest quote for the pair from every
	// exchange that publishes one. Venues without a quote are simply absent.
	QuotesAcrossVenues(ctx context.Context, pair string) ([]model.Quote, error)
	// FetchOrderBook returns the current book for the pair on one venue.
	FetchOrderBook(ctx context.Context, exchange, pair string) (model.OrderBook, error)
	// TradingFeeRate returns the taker fee as a fraction (0.001 = 0.1%).
	// Unknown venues get a conservative default, never an error.
	TradingFeeRate(exchange string) float64
	// WithdrawalFee returns the venue's withdrawal fee for the base asset,
	// quoted in units of that asset.
	WithdrawalFee(exchange, baseAsset string) float64
}

// VenueStatus can veto an exchange pair for operational reasons, such as
// suspended withdrawals on the buy side or suspended deposits on the sell
// side for the asset in question.
type VenueStatus interface {
	PairEligible(buyExchange, sellExchange, symbol string) bool
}

// HotList is the rotating set of symbols worth scanning. Observed arbitrage
// occurrences are written back so the list can learn which symbols recur.
type HotList interface {
	SymbolsToScan(ctx context.Context) ([]string, error)
	RecordOccurrence(ctx context.Context, symbol string, netProfitPct float64) error
}

// Alerter delivers a qualifying opportunity to the operator.
type Alerter interface {
	SendAlert(ctx context.Context, opp model.Opportunity) error
}
