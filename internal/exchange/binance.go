package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"coinhawk/internal/config"
	"coinhawk/internal/model"
)

// BinanceClient implements the Client interface for Binance.
type BinanceClient struct {
	logger *slog.Logger
	cfg    config.ExchangeConfig
	http   *http.Client
}

// NewBinanceClient creates a new BinanceClient.
func NewBinanceClient(logger *slog.Logger, cfg config.ExchangeConfig) *BinanceClient {
	if cfg.RestURL == "" {
		cfg.RestURL = "https://api.binance.com"
	}
	if cfg.WsURL == "" {
		cfg.WsURL = "wss://stream.binance.com:9443"
	}
	return &BinanceClient{
		logger: logger,
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BinanceClient) Name() string {
	return "binance"
}

func (b *BinanceClient) TradingFeePercent() float64 {
	return b.cfg.TakerFeePercent
}

func (b *BinanceClient) WithdrawalFee(asset string) (float64, bool) {
	if fee, ok := b.cfg.WithdrawalFees[strings.ToUpper(asset)]; ok {
		return fee, true
	}
	return b.cfg.DefaultWithdrawalFee, b.cfg.DefaultWithdrawalFee != 0
}

// binanceSymbol converts "BTC/USDT" to Binance's "BTCUSDT".
func binanceSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

type binanceTicker struct {
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// Ticker fetches the 24hr ticker for the pair.
func (b *BinanceClient) Ticker(ctx context.Context, pair string) (model.Quote, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", strings.TrimRight(b.cfg.RestURL, "/"), binanceSymbol(pair))

	var t binanceTicker
	if err := b.getJSON(ctx, url, &t); err != nil {
		return model.Quote{}, fmt.Errorf("binance ticker %s: %w", pair, err)
	}

	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("binance ticker %s: parse price: %w", pair, err)
	}
	volume, _ := strconv.ParseFloat(t.QuoteVolume, 64)

	return model.Quote{
		Exchange:  b.Name(),
		Symbol:    pair,
		Price:     price,
		Volume24h: volume,
		Timestamp: time.Now(),
		Venue:     model.VenueCEX,
	}, nil
}

type binanceDepth struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// OrderBook fetches the top five levels of the pair's book.
func (b *BinanceClient) OrderBook(ctx context.Context, pair string) (model.OrderBook, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=5", strings.TrimRight(b.cfg.RestURL, "/"), binanceSymbol(pair))

	var d binanceDepth
	if err := b.getJSON(ctx, url, &d); err != nil {
		return model.OrderBook{}, fmt.Errorf("binance depth %s: %w", pair, err)
	}

	book := model.OrderBook{Timestamp: time.Now()}
	var err error
	if book.Bids, err = parseLevels(d.Bids); err != nil {
		return model.OrderBook{}, fmt.Errorf("binance depth %s: %w", pair, err)
	}
	if book.Asks, err = parseLevels(d.Asks); err != nil {
		return model.OrderBook{}, fmt.Errorf("binance depth %s: %w", pair, err)
	}
	return book, nil
}

func (b *BinanceClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// parseLevels converts [["price","size"], ...] rows into book levels.
func parseLevels(rows [][]string) ([]model.BookLevel, error) {
	levels := make([]model.BookLevel, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			return nil, fmt.Errorf("malformed book level %v", r)
		}
		price, err := strconv.ParseFloat(r[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level price: %w", err)
		}
		size, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level size: %w", err)
		}
		levels = append(levels, model.BookLevel{Price: price, Size: size})
	}
	return levels, nil
}

// StreamTicks connects to the Binance WebSocket API and streams ticker
// updates for the pair until the context is cancelled.
func (b *BinanceClient) StreamTicks(ctx context.Context, pair string, out chan<- model.Quote) error {
	wsURL := fmt.Sprintf("%s/ws/%s@ticker", strings.TrimRight(b.cfg.WsURL, "/"), strings.ToLower(binanceSymbol(pair)))
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("BinanceClient: context cancelled, shutting down")
			return nil
		default:
		}

		b.logger.Info("BinanceClient: connecting to WebSocket", "url", wsURL, "backoff", backoff)
		c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			b.logger.Error("BinanceClient: WebSocket connection failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > 16*time.Second {
					backoff = 16 * time.Second
				}
			}
			continue
		}

		// Reset backoff on successful connection
		backoff = time.Second
		b.logger.Info("BinanceClient: connected successfully")

		if err := b.readTicks(ctx, c, pair, out); err != nil {
			b.logger.Error("BinanceClient: stream closed", "error", err)
		}
		c.Close()
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (b *BinanceClient) readTicks(ctx context.Context, c *websocket.Conn, pair string, out chan<- model.Quote) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_, message, err := c.ReadMessage()
		if err != nil {
			return err
		}

		var t struct {
			Last        string `json:"c"`
			QuoteVolume string `json:"q"`
		}
		if err := json.Unmarshal(message, &t); err != nil {
			b.logger.Warn("BinanceClient: failed to parse message", "error", err)
			continue
		}
		price, err := strconv.ParseFloat(t.Last, 64)
		if err != nil {
			b.logger.Warn("BinanceClient: failed to parse last price", "error", err)
			continue
		}
		volume, _ := strconv.ParseFloat(t.QuoteVolume, 64)

		quote := model.Quote{
			Exchange:  b.Name(),
			Symbol:    pair,
			Price:     price,
			Volume24h: volume,
			Timestamp: time.Now(),
			Venue:     model.VenueCEX,
		}

		select {
		case out <- quote:
			b.logger.Debug("BinanceClient: sent quote", "pair", pair, "price", price)
		case <-ctx.Done():
			return nil
		}
	}
}
