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

// KrakenClient implements the Client interface for Kraken.
type KrakenClient struct {
	logger *slog.Logger
	cfg    config.ExchangeConfig
	http   *http.Client
}

// NewKrakenClient creates a new KrakenClient.
func NewKrakenClient(logger *slog.Logger, cfg config.ExchangeConfig) *KrakenClient {
	if cfg.RestURL == "" {
		cfg.RestURL = "https://api.kraken.com"
	}
	if cfg.WsURL == "" {
		cfg.WsURL = "wss://ws.kraken.com"
	}
	return &KrakenClient{
		logger: logger,
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (k *KrakenClient) Name() string {
	return "kraken"
}

func (k *KrakenClient) TradingFeePercent() float64 {
	return k.cfg.TakerFeePercent
}

func (k *KrakenClient) WithdrawalFee(asset string) (float64, bool) {
	if fee, ok := k.cfg.WithdrawalFees[strings.ToUpper(asset)]; ok {
		return fee, true
	}
	return k.cfg.DefaultWithdrawalFee, k.cfg.DefaultWithdrawalFee != 0
}

// krakenPair converts "BTC/USDT" to Kraken's "XBT/USDT" naming.
func krakenPair(pair string) string {
	base, quote, found := strings.Cut(pair, "/")
	if !found {
		return pair
	}
	if strings.EqualFold(base, "BTC") {
		base = "XBT"
	}
	return strings.ToUpper(base) + "/" + strings.ToUpper(quote)
}

type krakenTicker struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		C []string `json:"c"` // last trade [price, lot volume]
		V []string `json:"v"` // volume [today, 24h]
	} `json:"result"`
}

// Ticker fetches the public ticker for the pair.
func (k *KrakenClient) Ticker(ctx context.Context, pair string) (model.Quote, error) {
	kp := strings.ReplaceAll(krakenPair(pair), "/", "")
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", strings.TrimRight(k.cfg.RestURL, "/"), kp)

	var t krakenTicker
	if err := k.getJSON(ctx, url, &t); err != nil {
		return model.Quote{}, fmt.Errorf("kraken ticker %s: %w", pair, err)
	}
	if len(t.Error) > 0 {
		return model.Quote{}, fmt.Errorf("kraken ticker %s: %s", pair, strings.Join(t.Error, ", "))
	}

	for _, entry := range t.Result {
		if len(entry.C) == 0 {
			break
		}
		price, err := strconv.ParseFloat(entry.C[0], 64)
		if err != nil {
			return model.Quote{}, fmt.Errorf("kraken ticker %s: parse price: %w", pair, err)
		}
		var volume float64
		if len(entry.V) > 1 {
			baseVol, _ := strconv.ParseFloat(entry.V[1], 64)
			volume = baseVol * price
		}
		return model.Quote{
			Exchange:  k.Name(),
			Symbol:    pair,
			Price:     price,
			Volume24h: volume,
			Timestamp: time.Now(),
			Venue:     model.VenueCEX,
		}, nil
	}
	return model.Quote{}, fmt.Errorf("kraken ticker %s: empty result", pair)
}

type krakenDepth struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		Bids [][]json.RawMessage `json:"bids"`
		Asks [][]json.RawMessage `json:"asks"`
	} `json:"result"`
}

// OrderBook fetches the top five levels of the pair's book.
func (k *KrakenClient) OrderBook(ctx context.Context, pair string) (model.OrderBook, error) {
	kp := strings.ReplaceAll(krakenPair(pair), "/", "")
	url := fmt.Sprintf("%s/0/public/Depth?pair=%s&count=5", strings.TrimRight(k.cfg.RestURL, "/"), kp)

	var d krakenDepth
	if err := k.getJSON(ctx, url, &d); err != nil {
		return model.OrderBook{}, fmt.Errorf("kraken depth %s: %w", pair, err)
	}
	if len(d.Error) > 0 {
		return model.OrderBook{}, fmt.Errorf("kraken depth %s: %s", pair, strings.Join(d.Error, ", "))
	}

	for _, entry := range d.Result {
		book := model.OrderBook{Timestamp: time.Now()}
		var err error
		if book.Bids, err = parseKrakenLevels(entry.Bids); err != nil {
			return model.OrderBook{}, fmt.Errorf("kraken depth %s: %w", pair, err)
		}
		if book.Asks, err = parseKrakenLevels(entry.Asks); err != nil {
			return model.OrderBook{}, fmt.Errorf("kraken depth %s: %w", pair, err)
		}
		return book, nil
	}
	return model.OrderBook{}, fmt.Errorf("kraken depth %s: empty result", pair)
}

// parseKrakenLevels converts [price, volume, timestamp] rows where price
// and volume are strings and the timestamp is a number.
func parseKrakenLevels(rows [][]json.RawMessage) ([]model.BookLevel, error) {
	levels := make([]model.BookLevel, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			return nil, fmt.Errorf("malformed book level %v", r)
		}
		var priceStr, sizeStr string
		if err := json.Unmarshal(r[0], &priceStr); err != nil {
			return nil, fmt.Errorf("parse level price: %w", err)
		}
		if err := json.Unmarshal(r[1], &sizeStr); err != nil {
			return nil, fmt.Errorf("parse level size: %w", err)
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse level price: %w", err)
		}
		size, err := strconv.ParseFloat(sizeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse level size: %w", err)
		}
		levels = append(levels, model.BookLevel{Price: price, Size: size})
	}
	return levels, nil
}

func (k *KrakenClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// StreamTicks connects to the Kraken WebSocket API and streams ticker
// updates for the pair until the context is cancelled.
func (k *KrakenClient) StreamTicks(ctx context.Context, pair string, out chan<- model.Quote) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("KrakenClient: context cancelled, shutting down")
			return nil
		default:
		}

		k.logger.Info("KrakenClient: connecting to WebSocket", "url", k.cfg.WsURL, "backoff", backoff)
		c, _, err := websocket.DefaultDialer.Dial(k.cfg.WsURL, nil)
		if err != nil {
			k.logger.Error("KrakenClient: WebSocket connection failed", "error", err)
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

		subscription := map[string]interface{}{
			"event": "subscribe",
			"pair":  []string{krakenPair(pair)},
			"subscription": map[string]string{
				"name": "ticker",
			},
		}
		if err := c.WriteJSON(subscription); err != nil {
			k.logger.Error("KrakenClient: failed to send subscription", "error", err)
			c.Close()
			continue
		}
		k.logger.Info("KrakenClient: subscription sent successfully")

		if err := k.readTicks(ctx, c, pair, out); err != nil {
			k.logger.Error("KrakenClient: stream closed", "error", err)
		}
		c.Close()
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (k *KrakenClient) readTicks(ctx context.Context, c *websocket.Conn, pair string, out chan<- model.Quote) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_, message, err := c.ReadMessage()
		if err != nil {
			return err
		}

		// Ticker updates arrive as arrays: [channelID, data, name, pair].
		// Everything else (heartbeats, subscription status) is an object.
		if len(message) == 0 || message[0] != '[' {
			continue
		}
		var frame []json.RawMessage
		if err := json.Unmarshal(message, &frame); err != nil {
			k.logger.Warn("KrakenClient: failed to parse message", "error", err)
			continue
		}
		if len(frame) < 4 {
			continue
		}

		var data struct {
			C []string `json:"c"`
			V []string `json:"v"`
		}
		if err := json.Unmarshal(frame[1], &data); err != nil || len(data.C) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(data.C[0], 64)
		if err != nil {
			k.logger.Warn("KrakenClient: failed to parse last price", "error", err)
			continue
		}
		var volume float64
		if len(data.V) > 1 {
			baseVol, _ := strconv.ParseFloat(data.V[1], 64)
			volume = baseVol * price
		}

		quote := model.Quote{
			Exchange:  k.Name(),
			Symbol:    pair,
			Price:     price,
			Volume24h: volume,
			Timestamp: time.Now(),
			Venue:     model.VenueCEX,
		}

		select {
		case out <- quote:
			k.logger.Debug("KrakenClient: sent quote", "pair", pair, "price", price)
		case <-ctx.Done():
			return nil
		}
	}
}
