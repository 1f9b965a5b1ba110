package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultBinanceURL is the public spot REST endpoint. No API key is needed
// for market data.
const DefaultBinanceURL = "https://api.binance.com"

// Quote is one live market snapshot derived from Binance REST data.
type Quote struct {
	Symbol    string
	Price     float64
	MA30      float64
	Change24h float64 // percent vs previous daily close
	History   []float64
}

// BinanceClient fetches spot prices and daily klines from the public REST
// API.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBinanceClient creates a client for the given base URL; an empty URL
// selects the public endpoint.
func NewBinanceClient(baseURL string, timeout time.Duration) *BinanceClient {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TickerPrice returns the current spot price for a pair such as "BTCUSDT".
func (c *BinanceClient) TickerPrice(ctx context.Context, pair string) (float64, error) {
	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, pair)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("feed: parse ticker price %q: %w", out.Price, err)
	}
	return price, nil
}

// DailyCloses returns the most recent daily close prices, oldest first.
func (c *BinanceClient) DailyCloses(ctx context.Context, pair string, limit int) ([]float64, error) {
	var raw [][]json.RawMessage
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&limit=%d", c.baseURL, pair, limit)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	closes := make([]float64, 0, len(raw))
	for _, k := range raw {
		// Kline layout: [openTime, open, high, low, close, volume, ...];
		// numeric fields arrive as strings.
		if len(k) < 5 {
			return nil, fmt.Errorf("feed: malformed kline with %d fields", len(k))
		}
		var closeStr string
		if err := json.Unmarshal(k[4], &closeStr); err != nil {
			return nil, fmt.Errorf("feed: decode kline close: %w", err)
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("feed: parse kline close %q: %w", closeStr, err)
		}
		closes = append(closes, price)
	}
	return closes, nil
}

// FetchQuote assembles a full quote: current price, 30-day moving average,
// and 24h change measured against the previous daily close.
func (c *BinanceClient) FetchQuote(ctx context.Context, symbol, pair string) (Quote, error) {
	price, err := c.TickerPrice(ctx, pair)
	if err != nil {
		return Quote{}, err
	}

	// 31 daily candles: the last 30 feed the moving average, the
	// next-to-last close anchors the 24h change.
	closes, err := c.DailyCloses(ctx, pair, 31)
	if err != nil {
		return Quote{}, err
	}
	if len(closes) < 2 {
		return Quote{}, fmt.Errorf("feed: only %d daily closes for %s", len(closes), pair)
	}

	history := closes
	if len(history) > 30 {
		history = history[len(history)-30:]
	}
	var sum float64
	for _, p := range history {
		sum += p
	}

	prevClose := closes[len(closes)-2]
	q := Quote{
		Symbol:  symbol,
		Price:   price,
		MA30:    sum / float64(len(history)),
		History: history,
	}
	if prevClose > 0 {
		q.Change24h = (price - prevClose) / prevClose * 100
	}
	return q, nil
}

func (c *BinanceClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("feed: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed: binance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed: binance status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("feed: decode binance response: %w", err)
	}
	return nil
}
