package arbitrage

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"coinhawk/internal/metrics"
	"coinhawk/internal/model"
)

// Verification is the outcome of re-checking an opportunity against live
// order books. Book is nil whenever either book could not be read.
type Verification struct {
	Confirmed bool
	Book      *model.BookQuotes
}

// BookVerifier re-derives tradability from the top of book at verification
// time. The pairwise scan works off last-trade prices which can be stale by
// the time an operator could act; the verifier rejects opportunities whose
// book has already moved past the tolerance band.
type BookVerifier struct {
	prices    PriceSource
	tolerance float64 // fraction, e.g. 0.001 for 0.1%
	logger    *slog.Logger
}

// NewBookVerifier creates a verifier with the given tolerance in percent.
func NewBookVerifier(prices PriceSource, tolerancePercent float64, logger *slog.Logger) *BookVerifier {
	return &BookVerifier{
		prices:    prices,
		tolerance: tolerancePercent / 100,
		logger:    logger,
	}
}

// Verify fetches both venues' books concurrently and checks that the buy
// venue's best ask and the sell venue's best bid still support the recorded
// prices within tolerance. It never returns an error: any fetch or parse
// failure degrades to an unconfirmed result.
func (v *BookVerifier) Verify(ctx context.Context, pair, buyExchange, sellExchange string, buyPrice, sellPrice float64) Verification {
	var buyBook, sellBook model.OrderBook

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buyBook, err = v.prices.FetchOrderBook(gctx, buyExchange, pair)
		return err
	})
	g.Go(func() error {
		var err error
		sellBook, err = v.prices.FetchOrderBook(gctx, sellExchange, pair)
		return err
	})
	if err := g.Wait(); err != nil {
		v.logger.Debug("order book verification failed",
			"pair", pair, "error", err)
		return Verification{}
	}

	buyBid, ok1 := buyBook.BestBid()
	buyAsk, ok2 := buyBook.BestAsk()
	sellBid, ok3 := sellBook.BestBid()
	sellAsk, ok4 := sellBook.BestAsk()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		v.logger.Debug("order book verification failed: missing levels", "pair", pair)
		return Verification{}
	}

	// We buy at the ask and sell at the bid.
	buyValid := buyAsk.Price <= buyPrice*(1+v.tolerance)
	sellValid := sellBid.Price >= sellPrice*(1-v.tolerance)
	confirmed := buyValid && sellValid

	if !confirmed {
		metrics.BookRejections.Inc()
		v.logger.Debug("order book moved past tolerance",
			"pair", pair,
			"buyAsk", buyAsk.Price, "buyPrice", buyPrice,
			"sellBid", sellBid.Price, "sellPrice", sellPrice,
		)
	}

	return Verification{
		Confirmed: confirmed,
		Book: &model.BookQuotes{
			BuyBid:  buyBid.Price,
			BuyAsk:  buyAsk.Price,
			SellBid: sellBid.Price,
			SellAsk: sellAsk.Price,
		},
	}
}
