package marketdata

import (
	"context"
	"log/slog"

	"coinhawk/internal/exchange"
	"coinhawk/internal/model"
)

// RunStreams starts a ticker stream per venue and pair and pumps the
// resulting quotes into the cache. It blocks until the context ends.
func RunStreams(ctx context.Context, clients map[string]exchange.Client, pairs []string, store *Store, logger *slog.Logger) {
	ch := make(chan model.Quote, 256)

	for _, c := range clients {
		for _, p := range pairs {
			go func(c exchange.Client, pair string) {
				if err := c.StreamTicks(ctx, pair, ch); err != nil {
					logger.Error("ticker stream ended",
						"exchange", c.Name(), "pair", pair, "error", err)
				}
			}(c, p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case q := <-ch:
			if err := store.PutQuote(ctx, q); err != nil {
				logger.Warn("failed to cache quote", "exchange", q.Exchange, "error", err)
			}
		}
	}
}
