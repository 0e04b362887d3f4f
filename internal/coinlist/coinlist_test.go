package coinlist

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func shortenDelays(t *testing.T) {
	t.Helper()
	origRetry, origRate, origPage := retryDelay, rateLimitWait, pageDelay
	retryDelay = time.Millisecond
	rateLimitWait = time.Millisecond
	pageDelay = time.Millisecond
	t.Cleanup(func() {
		retryDelay, rateLimitWait, pageDelay = origRetry, origRate, origPage
	})
}

func marketsJSON(symbols ...string) string {
	out := "["
	for i, sym := range symbols {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"symbol":%q,"name":%q,"market_cap":%d}`, sym, sym, 1000-i)
	}
	return out + "]"
}

func TestService_TopCoins(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches, ranks and uppercases symbols", func(t *testing.T) {
		shortenDelays(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			fmt.Fprint(w, marketsJSON("btc", "eth", "sol"))
		}))
		defer srv.Close()

		s := New(srv.URL, 3, time.Hour, testLogger())
		coins, err := s.TopCoins(ctx)

		require.NoError(t, err)
		require.Len(t, coins, 3)
		assert.Equal(t, "BTC", coins[0].Symbol)
		assert.Equal(t, 1, coins[0].Rank)
		assert.Equal(t, "SOL", coins[2].Symbol)
		assert.Equal(t, 3, coins[2].Rank)
	})

	t.Run("universe larger than a page is fetched page by page", func(t *testing.T) {
		shortenDelays(t)
		var pagesSeen []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pagesSeen = append(pagesSeen, r.URL.Query().Get("page"))
			syms := make([]string, perPage)
			for i := range syms {
				syms[i] = fmt.Sprintf("c%s-%d", r.URL.Query().Get("page"), i)
			}
			fmt.Fprint(w, marketsJSON(syms...))
		}))
		defer srv.Close()

		s := New(srv.URL, 300, time.Hour, testLogger())
		coins, err := s.TopCoins(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, pagesSeen)
		assert.Len(t, coins, 300)
		assert.Equal(t, 300, coins[299].Rank)
	})

	t.Run("second call within the TTL is served from cache", func(t *testing.T) {
		shortenDelays(t)
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			fmt.Fprint(w, marketsJSON("btc"))
		}))
		defer srv.Close()

		s := New(srv.URL, 1, time.Hour, testLogger())
		_, err := s.TopCoins(ctx)
		require.NoError(t, err)
		_, err = s.TopCoins(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		shortenDelays(t)
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, marketsJSON("btc"))
		}))
		defer srv.Close()

		s := New(srv.URL, 1, time.Hour, testLogger())
		coins, err := s.TopCoins(ctx)

		require.NoError(t, err)
		require.Len(t, coins, 1)
		assert.Equal(t, "BTC", coins[0].Symbol)
		assert.Equal(t, 3, calls)
	})

	t.Run("cold start with the API down serves the fallback list", func(t *testing.T) {
		shortenDelays(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		s := New(srv.URL, 100, time.Hour, testLogger())
		coins, err := s.TopCoins(ctx)

		require.NoError(t, err)
		require.NotEmpty(t, coins)
		assert.Equal(t, "BTC", coins[0].Symbol)
	})

	t.Run("fetch failure after a good fetch reuses the stale cache", func(t *testing.T) {
		shortenDelays(t)
		var fail bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, marketsJSON("eth"))
		}))
		defer srv.Close()

		s := New(srv.URL, 1, time.Nanosecond, testLogger())
		coins, err := s.TopCoins(ctx)
		require.NoError(t, err)
		require.Len(t, coins, 1)

		fail = true
		coins, err = s.TopCoins(ctx)
		require.NoError(t, err)
		require.Len(t, coins, 1)
		assert.Equal(t, "ETH", coins[0].Symbol)
	})
}

func TestService_Symbols(t *testing.T) {
	shortenDelays(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, marketsJSON("btc", "eth"))
	}))
	defer srv.Close()

	s := New(srv.URL, 2, time.Hour, testLogger())
	symbols, err := s.Symbols(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, symbols)
}
