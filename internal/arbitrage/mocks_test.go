package arbitrage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"coinhawk/internal/model"
)

type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) QuotesAcrossVenues(ctx context.Context, pair string) ([]model.Quote, error) {
	args := m.Called(ctx, pair)
	if v := args.Get(0); v != nil {
		return v.([]model.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPriceSource) FetchOrderBook(ctx context.Context, exchange, pair string) (model.OrderBook, error) {
	args := m.Called(ctx, exchange, pair)
	return args.Get(0).(model.OrderBook), args.Error(1)
}

func (m *MockPriceSource) TradingFeeRate(exchange string) float64 {
	args := m.Called(exchange)
	return args.Get(0).(float64)
}

func (m *MockPriceSource) WithdrawalFee(exchange, baseAsset string) float64 {
	args := m.Called(exchange, baseAsset)
	return args.Get(0).(float64)
}

type MockVenueStatus struct {
	mock.Mock
}

func (m *MockVenueStatus) PairEligible(buyExchange, sellExchange, symbol string) bool {
	args := m.Called(buyExchange, sellExchange, symbol)
	return args.Bool(0)
}

type MockHotList struct {
	mock.Mock
}

func (m *MockHotList) SymbolsToScan(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHotList) RecordOccurrence(ctx context.Context, symbol string, netProfitPct float64) error {
	args := m.Called(ctx, symbol, netProfitPct)
	return args.Error(0)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) SendAlert(ctx context.Context, opp model.Opportunity) error {
	args := m.Called(ctx, opp)
	return args.Error(0)
}
