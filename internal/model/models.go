package model

import "time"

// VenueType distinguishes centralized from on-chain venues.
type VenueType string

const (
	VenueCEX VenueType = "CEX"
	VenueDEX VenueType = "DEX"
)

// Quote is an immutable price snapshot for one trading pair on one venue.
type Quote struct {
	Exchange  string
	Symbol    string // trading pair, e.g. "BTC/USDT"
	Price     float64
	Volume24h float64
	Timestamp time.Time
	Venue     VenueType
}

// BookLevel is a single order-book level.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook holds both sides of a venue's book, best level first.
type OrderBook struct {
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp time.Time
}

// BestBid returns the top bid level, if the bid side is non-empty.
func (b OrderBook) BestBid() (BookLevel, bool) {
	if len(b.Bids) == 0 {
		return BookLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level, if the ask side is non-empty.
func (b OrderBook) BestAsk() (BookLevel, bool) {
	if len(b.Asks) == 0 {
		return BookLevel{}, false
	}
	return b.Asks[0], true
}

// BookQuotes carries the best bid and ask seen on both venues while an
// opportunity was being verified. The four prices are only ever recorded
// together.
type BookQuotes struct {
	BuyBid  float64
	BuyAsk  float64
	SellBid float64
	SellAsk float64
}

// FeeBreakdown itemizes the cost of a two-leg arbitrage trade. All values
// are in the trade's quote currency.
type FeeBreakdown struct {
	BuyTradingFee  float64
	SellTradingFee float64
	WithdrawalFee  float64
	NetworkFee     float64
	TotalFees      float64
}

// Opportunity is a fully valued cross-exchange arbitrage candidate. Records
// are constructed once per scan cycle and never mutated.
type Opportunity struct {
	Symbol               string
	BuyExchange          string
	SellExchange         string
	BuyPrice             float64
	SellPrice            float64
	PriceDifference      float64
	PercentageDifference float64
	EstimatedProfit      float64
	Fees                 FeeBreakdown
	NetProfit            float64
	NetProfitPercentage  float64
	TradeAmount          float64
	Timestamp            time.Time

	// BookConfirmed is true only when live order books backed the prices
	// within tolerance. Book is nil unless verification read both books.
	BookConfirmed bool
	Book          *BookQuotes
}

// SymbolScan is the per-symbol outcome of one scan cycle. A non-nil Err
// means the symbol was skipped; the rest of the cycle continues regardless.
type SymbolScan struct {
	Symbol        string
	Opportunities []Opportunity
	Err           error
}

// Coin is one entry of the market-cap-ranked coin universe.
type Coin struct {
	Symbol    string
	Name      string
	MarketCap float64
	Rank      int
}
