// Package notify delivers arbitrage alerts to one or more channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"coinhawk/internal/model"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier formats opportunities and fans them out to all senders. A single
// sender failure does not prevent delivery to the remaining senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier over the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// SendAlert formats and dispatches one arbitrage opportunity.
func (n *Notifier) SendAlert(ctx context.Context, opp model.Opportunity) error {
	title := fmt.Sprintf("Arbitrage: %s", opp.Symbol)
	return n.dispatch(ctx, title, FormatOpportunity(opp))
}

// FormatOpportunity renders the alert body for an opportunity.
func FormatOpportunity(opp model.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Buy on %s @ %.6f, sell on %s @ %.6f\n",
		opp.BuyExchange, opp.BuyPrice, opp.SellExchange, opp.SellPrice)
	fmt.Fprintf(&b, "Spread: %.3f%%  Fees: $%.2f (trade $%.0f)\n",
		opp.PercentageDifference, opp.Fees.TotalFees, opp.TradeAmount)
	fmt.Fprintf(&b, "Net profit: $%.2f (%.3f%%)", opp.NetProfit, opp.NetProfitPercentage)
	if opp.Book != nil {
		fmt.Fprintf(&b, "\nBook: buy ask %.6f / sell bid %.6f", opp.Book.BuyAsk, opp.Book.SellBid)
	}
	return b.String()
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
