// Package status tracks per-venue asset transfer suspensions and vetoes
// exchange pairs an arbitrage could not actually move funds across.
package status

import (
	"log/slog"
	"strings"
	"sync"

	"coinhawk/internal/config"
)

// Registry is the venue-status collaborator. It is seeded from the
// per-exchange configuration and can be updated at runtime.
type Registry struct {
	mu                   sync.RWMutex
	suspendedWithdrawals map[string]map[string]bool // exchange -> asset
	suspendedDeposits    map[string]map[string]bool
	logger               *slog.Logger
}

// NewRegistry seeds a Registry from the exchange configuration.
func NewRegistry(exchanges map[string]config.ExchangeConfig, logger *slog.Logger) *Registry {
	r := &Registry{
		suspendedWithdrawals: make(map[string]map[string]bool),
		suspendedDeposits:    make(map[string]map[string]bool),
		logger:               logger,
	}
	for name, cfg := range exchanges {
		for _, asset := range cfg.SuspendedWithdrawals {
			r.SuspendWithdrawals(name, asset)
		}
		for _, asset := range cfg.SuspendedDeposits {
			r.SuspendDeposits(name, asset)
		}
	}
	return r
}

// SuspendWithdrawals marks the asset as non-withdrawable on the exchange.
func (r *Registry) SuspendWithdrawals(exchange, asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspendedWithdrawals[exchange] == nil {
		r.suspendedWithdrawals[exchange] = make(map[string]bool)
	}
	r.suspendedWithdrawals[exchange][strings.ToUpper(asset)] = true
}

// SuspendDeposits marks the asset as non-depositable on the exchange.
func (r *Registry) SuspendDeposits(exchange, asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspendedDeposits[exchange] == nil {
		r.suspendedDeposits[exchange] = make(map[string]bool)
	}
	r.suspendedDeposits[exchange][strings.ToUpper(asset)] = true
}

// ResumeWithdrawals clears a withdrawal suspension.
func (r *Registry) ResumeWithdrawals(exchange, asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.suspendedWithdrawals[exchange], strings.ToUpper(asset))
}

// ResumeDeposits clears a deposit suspension.
func (r *Registry) ResumeDeposits(exchange, asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.suspendedDeposits[exchange], strings.ToUpper(asset))
}

// PairEligible reports whether the asset can move from the buy venue to the
// sell venue: withdrawals must be open on the buy side and deposits open on
// the sell side.
func (r *Registry) PairEligible(buyExchange, sellExchange, symbol string) bool {
	asset := strings.ToUpper(symbol)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.suspendedWithdrawals[buyExchange][asset] {
		r.logger.Debug("pair vetoed: withdrawals suspended", "exchange", buyExchange, "asset", asset)
		return false
	}
	if r.suspendedDeposits[sellExchange][asset] {
		r.logger.Debug("pair vetoed: deposits suspended", "exchange", sellExchange, "asset", asset)
		return false
	}
	return true
}
