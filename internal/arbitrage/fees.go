package arbitrage

import (
	"coinhawk/internal/model"
)

// FeeCalculator prices the full cost of a hypothetical two-leg arbitrage
// trade at a fixed notional. It never fails: unknown fee rates come back
// from the price source as conservative defaults.
type FeeCalculator struct {
	prices      PriceSource
	tradeAmount float64
}

// NewFeeCalculator creates a FeeCalculator for the given trade notional.
func NewFeeCalculator(prices PriceSource, tradeAmountUSD float64) *FeeCalculator {
	return &FeeCalculator{prices: prices, tradeAmount: tradeAmountUSD}
}

// ComputeFees itemizes the cost of buying baseAsset at buyPrice on one
// venue and selling it at sellPrice on another. Each trading leg is charged
// on its own notional: the bought quantity is tradeAmount/buyPrice, so the
// sell leg's gross is larger than the buy leg's whenever the spread is
// positive. The withdrawal fee is quoted by the buy venue in units of the
// base asset and converted at buyPrice. The network fee is zero for
// CEX-to-CEX moves; the field stays so paths touching a DEX can fill it in.
func (f *FeeCalculator) ComputeFees(baseAsset, buyExchange, sellExchange string, buyPrice, sellPrice float64) model.FeeBreakdown {
	qty := f.tradeAmount / buyPrice

	buyFee := buyPrice * qty * f.prices.TradingFeeRate(buyExchange)
	sellFee := sellPrice * qty * f.prices.TradingFeeRate(sellExchange)
	withdrawalFee := f.prices.WithdrawalFee(buyExchange, baseAsset) * buyPrice
	networkFee := 0.0

	return model.FeeBreakdown{
		BuyTradingFee:  buyFee,
		SellTradingFee: sellFee,
		WithdrawalFee:  withdrawalFee,
		NetworkFee:     networkFee,
		TotalFees:      buyFee + sellFee + withdrawalFee + networkFee,
	}
}
