package arbitrage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coinhawk/internal/config"
	"coinhawk/internal/model"
)

func testArbConfig() config.ArbitrageConfig {
	return config.ArbitrageConfig{
		MinProfitPercent:     0.5,
		TradeAmountUSD:       1000,
		BookTolerancePercent: 0.1,
		QuoteCurrency:        "USDT",
	}
}

func quote(exchange string, price float64) model.Quote {
	return model.Quote{
		Exchange:  exchange,
		Symbol:    "FOO/USDT",
		Price:     price,
		Timestamp: time.Now(),
		Venue:     model.VenueCEX,
	}
}

func newTestScanner(prices *MockPriceSource, status *MockVenueStatus, cfg config.ArbitrageConfig) *Scanner {
	logger := testLogger()
	fees := NewFeeCalculator(prices, cfg.TradeAmountUSD)
	verifier := NewBookVerifier(prices, cfg.BookTolerancePercent, logger)
	return NewScanner(prices, status, fees, verifier, cfg, logger)
}

func TestScanner_ScanSymbol(t *testing.T) {
	ctx := context.Background()

	t.Run("profitable spread emits an opportunity", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100), quote("ExchB", 102)}, nil)
		prices.On("TradingFeeRate", mock.Anything).Return(0.001)
		prices.On("WithdrawalFee", "ExchA", "FOO").Return(0.0)
		status.On("PairEligible", "ExchA", "ExchB", "FOO").Return(true)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		require.Len(t, opps, 1)
		opp := opps[0]
		assert.Equal(t, "ExchA", opp.BuyExchange)
		assert.Equal(t, "ExchB", opp.SellExchange)
		assert.Equal(t, 100.0, opp.BuyPrice)
		assert.Equal(t, 102.0, opp.SellPrice)
		assert.InDelta(t, 2.0, opp.PercentageDifference, 1e-9)
		assert.InDelta(t, 20.0, opp.EstimatedProfit, 1e-9)
		assert.InDelta(t, 17.98, opp.NetProfit, 1e-9)
		assert.InDelta(t, 1.798, opp.NetProfitPercentage, 1e-9)
		assert.InDelta(t, opp.NetProfit/opp.TradeAmount*100, opp.NetProfitPercentage, 1e-12)
		assert.False(t, opp.BookConfirmed)
		assert.Nil(t, opp.Book)
	})

	t.Run("buy side is always the cheaper venue", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		// quote order reversed relative to price order
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 102), quote("ExchB", 100)}, nil)
		prices.On("TradingFeeRate", mock.Anything).Return(0.001)
		prices.On("WithdrawalFee", "ExchB", "FOO").Return(0.0)
		status.On("PairEligible", "ExchB", "ExchA", "FOO").Return(true)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		require.Len(t, opps, 1)
		assert.Equal(t, "ExchB", opps[0].BuyExchange)
		assert.Equal(t, "ExchA", opps[0].SellExchange)
	})

	t.Run("spread eaten by fees is dropped", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100), quote("ExchB", 100.05)}, nil)
		prices.On("TradingFeeRate", mock.Anything).Return(0.001)
		prices.On("WithdrawalFee", "ExchA", "FOO").Return(0.0)
		status.On("PairEligible", "ExchA", "ExchB", "FOO").Return(true)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		assert.Empty(t, opps)
	})

	t.Run("vetoed pair skips fee computation", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100), quote("ExchB", 102)}, nil)
		status.On("PairEligible", "ExchA", "ExchB", "FOO").Return(false)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		assert.Empty(t, opps)
		prices.AssertNotCalled(t, "TradingFeeRate", mock.Anything)
	})

	t.Run("every unordered venue pair is evaluated once", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{
				quote("E1", 100), quote("E2", 101), quote("E3", 102), quote("E4", 103),
			}, nil)
		status.On("PairEligible", mock.Anything, mock.Anything, mock.Anything).Return(false)

		s := newTestScanner(prices, status, testArbConfig())
		_, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		// 4 quotes -> 4*3/2 pair evaluations
		status.AssertNumberOfCalls(t, "PairEligible", 6)
	})

	t.Run("fewer than two quotes is empty, not an error", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100)}, nil)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		assert.Empty(t, opps)
	})

	t.Run("zero-priced quote aborts the symbol", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 0), quote("ExchB", 102)}, nil)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.Error(t, err)
		assert.Empty(t, opps)
		status.AssertNotCalled(t, "PairEligible", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NaN-priced quote aborts the symbol", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", math.NaN()), quote("ExchB", 102)}, nil)

		s := newTestScanner(prices, status, testArbConfig())
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.Error(t, err)
		assert.Empty(t, opps)
	})

	t.Run("quote retrieval failure surfaces as an error", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return(nil, errors.New("feed down"))

		s := newTestScanner(prices, status, testArbConfig())
		_, err := s.ScanSymbol(ctx, "FOO")

		assert.Error(t, err)
	})

	t.Run("identical inputs produce identical records except timestamps", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100), quote("ExchB", 102)}, nil)
		prices.On("TradingFeeRate", mock.Anything).Return(0.001)
		prices.On("WithdrawalFee", "ExchA", "FOO").Return(0.0)
		status.On("PairEligible", "ExchA", "ExchB", "FOO").Return(true)

		s := newTestScanner(prices, status, testArbConfig())
		first, err := s.ScanSymbol(ctx, "FOO")
		require.NoError(t, err)
		second, err := s.ScanSymbol(ctx, "FOO")
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		a, b := first[0], second[0]
		a.Timestamp, b.Timestamp = time.Time{}, time.Time{}
		assert.Equal(t, a, b)
	})

	t.Run("verification result is attached when enabled", func(t *testing.T) {
		prices := new(MockPriceSource)
		status := new(MockVenueStatus)
		prices.On("QuotesAcrossVenues", mock.Anything, "FOO/USDT").
			Return([]model.Quote{quote("ExchA", 100), quote("ExchB", 102)}, nil)
		prices.On("TradingFeeRate", mock.Anything).Return(0.001)
		prices.On("WithdrawalFee", "ExchA", "FOO").Return(0.0)
		prices.On("FetchOrderBook", mock.Anything, "ExchA", "FOO/USDT").Return(book(99.9, 100.05), nil)
		prices.On("FetchOrderBook", mock.Anything, "ExchB", "FOO/USDT").Return(book(101.95, 102.1), nil)
		status.On("PairEligible", "ExchA", "ExchB", "FOO").Return(true)

		cfg := testArbConfig()
		cfg.VerifyOrderBook = true
		s := newTestScanner(prices, status, cfg)
		opps, err := s.ScanSymbol(ctx, "FOO")

		require.NoError(t, err)
		require.Len(t, opps, 1)
		assert.True(t, opps[0].BookConfirmed)
		require.NotNil(t, opps[0].Book)
		assert.Equal(t, 100.05, opps[0].Book.BuyAsk)
	})
}
