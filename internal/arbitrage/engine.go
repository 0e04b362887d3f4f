package arbitrage

import (
	"context"
	"log/slog"
	"slices"
	"sort"

	"coinhawk/internal/config"
	"coinhawk/internal/metrics"
	"coinhawk/internal/model"
)

// Engine aggregates scan results across the hot list and dispatches the
// alert and record side effects for qualifying opportunities.
type Engine struct {
	logger  *slog.Logger
	scanner *Scanner
	hotlist HotList
	alerter Alerter
	cfg     config.ArbitrageConfig
}

// NewEngine creates a new instance of the Engine.
func NewEngine(logger *slog.Logger, scanner *Scanner, hotlist HotList, alerter Alerter, cfg config.ArbitrageConfig) *Engine {
	return &Engine{
		logger:  logger,
		scanner: scanner,
		hotlist: hotlist,
		alerter: alerter,
		cfg:     cfg,
	}
}

// RunCycle executes one complete pass: read the hot list, scan every
// symbol, then alert on confirmed opportunities above the threshold. The
// returned list is the raw scan output, side-effect gating does not trim it.
func (e *Engine) RunCycle(ctx context.Context) []model.Opportunity {
	symbols, err := e.hotlist.SymbolsToScan(ctx)
	if err != nil {
		e.logger.Error("failed to read hot list", "error", err)
		return nil
	}
	if len(symbols) == 0 {
		e.logger.Debug("no hot symbols to scan")
		return nil
	}

	e.logger.Info("scanning hot symbols for arbitrage", "count", len(symbols))

	results := e.ScanAll(ctx, symbols)

	var opps []model.Opportunity
	for _, r := range results {
		opps = append(opps, r.Opportunities...)
	}
	metrics.OpportunitiesFound.Add(float64(len(opps)))

	e.dispatch(ctx, opps)
	return opps
}

// ScanAll scans the given symbols one at a time. A failure on one symbol is
// recorded in its SymbolScan and never aborts the remaining symbols.
func (e *Engine) ScanAll(ctx context.Context, symbols []string) []model.SymbolScan {
	results := make([]model.SymbolScan, 0, len(symbols))
	for _, sym := range symbols {
		opps, err := e.scanner.ScanSymbol(ctx, sym)
		if err != nil {
			e.logger.Warn("symbol scan skipped", "symbol", sym, "error", err)
			results = append(results, model.SymbolScan{Symbol: sym, Err: err})
			continue
		}
		results = append(results, model.SymbolScan{Symbol: sym, Opportunities: opps})
	}
	return results
}

// dispatch sends alerts and records occurrences for opportunities that
// clear the profit threshold and carry order-book confirmation. Delivery
// failures are logged, never propagated.
func (e *Engine) dispatch(ctx context.Context, opps []model.Opportunity) {
	for _, opp := range FilterByThreshold(opps, e.cfg.MinProfitPercent) {
		if !opp.BookConfirmed {
			e.logger.Debug("skipping unconfirmed opportunity",
				"symbol", opp.Symbol,
				"buyExchange", opp.BuyExchange,
				"sellExchange", opp.SellExchange,
			)
			continue
		}

		e.logger.Info("profitable arbitrage opportunity found",
			"symbol", opp.Symbol,
			"buyExchange", opp.BuyExchange,
			"sellExchange", opp.SellExchange,
			"buyPrice", opp.BuyPrice,
			"sellPrice", opp.SellPrice,
			"netProfit", opp.NetProfit,
			"netProfitPct", opp.NetProfitPercentage,
		)

		if err := e.alerter.SendAlert(ctx, opp); err != nil {
			e.logger.Error("failed to send alert", "symbol", opp.Symbol, "error", err)
		} else {
			metrics.AlertsSent.Inc()
		}
		if err := e.hotlist.RecordOccurrence(ctx, opp.Symbol, opp.NetProfitPercentage); err != nil {
			e.logger.Error("failed to record occurrence", "symbol", opp.Symbol, "error", err)
		}
	}
}

// SortByNetProfit returns a copy of the list sorted descending by net
// profit. The sort is stable so equal-profit opportunities keep their scan
// order.
func SortByNetProfit(opps []model.Opportunity) []model.Opportunity {
	out := slices.Clone(opps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NetProfit > out[j].NetProfit
	})
	return out
}

// FilterByThreshold keeps opportunities whose net profit percentage meets
// the minimum.
func FilterByThreshold(opps []model.Opportunity, minPct float64) []model.Opportunity {
	var out []model.Opportunity
	for _, o := range opps {
		if o.NetProfitPercentage >= minPct {
			out = append(out, o)
		}
	}
	return out
}

// Best returns the most profitable opportunity, if any.
func Best(opps []model.Opportunity) (model.Opportunity, bool) {
	if len(opps) == 0 {
		return model.Opportunity{}, false
	}
	return SortByNetProfit(opps)[0], true
}
