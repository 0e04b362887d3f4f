package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coinhawk/internal/config"
	"coinhawk/internal/metrics"
	"coinhawk/internal/model"
)

// Scanner enumerates every exchange pair quoting a symbol and values the
// price spread of each combination.
type Scanner struct {
	prices   PriceSource
	status   VenueStatus
	fees     *FeeCalculator
	verifier *BookVerifier
	cfg      config.ArbitrageConfig
	logger   *slog.Logger
}

// NewScanner creates a Scanner wired to its collaborators.
func NewScanner(prices PriceSource, status VenueStatus, fees *FeeCalculator, verifier *BookVerifier, cfg config.ArbitrageConfig, logger *slog.Logger) *Scanner {
	return &Scanner{
		prices:   prices,
		status:   status,
		fees:     fees,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// ScanSymbol compares all quotes for the symbol's primary pair across
// venues. For n quotes it evaluates exactly n*(n-1)/2 unordered pairs.
// Fewer than two quotes is not an error, just an empty result.
func (s *Scanner) ScanSymbol(ctx context.Context, symbol string) ([]model.Opportunity, error) {
	pair := symbol + "/" + s.cfg.QuoteCurrency

	quotes, err := s.prices.QuotesAcrossVenues(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("quotes for %s: %w", pair, err)
	}
	if len(quotes) < 2 {
		return nil, nil
	}
	for _, q := range quotes {
		// A non-positive or NaN price would poison the fee arithmetic.
		if !(q.Price > 0) {
			return nil, fmt.Errorf("quotes for %s: bad price %g from %s", pair, q.Price, q.Exchange)
		}
	}

	var opps []model.Opportunity
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			metrics.PairEvaluations.Inc()

			// The cheaper venue is always the buy side.
			buy, sell := quotes[i], quotes[j]
			if sell.Price < buy.Price {
				buy, sell = sell, buy
			}

			if opp, ok := s.valuePair(ctx, symbol, pair, buy, sell); ok {
				opps = append(opps, opp)
			}
		}
	}
	return opps, nil
}

// valuePair turns one buy/sell quote pair into a fully populated
// opportunity, or nothing. Vetoed venue pairs short-circuit before any fee
// computation; spreads that do not survive fees are dropped silently, that
// is the expected common case.
func (s *Scanner) valuePair(ctx context.Context, symbol, pair string, buy, sell model.Quote) (model.Opportunity, bool) {
	if !s.status.PairEligible(buy.Exchange, sell.Exchange, symbol) {
		return model.Opportunity{}, false
	}

	priceDiff := sell.Price - buy.Price
	pctDiff := priceDiff / buy.Price * 100
	gross := pctDiff / 100 * s.cfg.TradeAmountUSD

	fees := s.fees.ComputeFees(symbol, buy.Exchange, sell.Exchange, buy.Price, sell.Price)

	net := gross - fees.TotalFees
	netPct := net / s.cfg.TradeAmountUSD * 100
	// Inverted so a NaN net also fails the gate.
	if !(net > 0) {
		return model.Opportunity{}, false
	}

	opp := model.Opportunity{
		Symbol:               symbol,
		BuyExchange:          buy.Exchange,
		SellExchange:         sell.Exchange,
		BuyPrice:             buy.Price,
		SellPrice:            sell.Price,
		PriceDifference:      priceDiff,
		PercentageDifference: pctDiff,
		EstimatedProfit:      gross,
		Fees:                 fees,
		NetProfit:            net,
		NetProfitPercentage:  netPct,
		TradeAmount:          s.cfg.TradeAmountUSD,
		Timestamp:            time.Now(),
	}

	if s.cfg.VerifyOrderBook {
		res := s.verifier.Verify(ctx, pair, buy.Exchange, sell.Exchange, buy.Price, sell.Price)
		opp.BookConfirmed = res.Confirmed
		opp.Book = res.Book
	}

	return opp, true
}
