package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultBinanceWSURL is the public spot stream endpoint.
const DefaultBinanceWSURL = "wss://stream.binance.com:9443/ws"

// PriceHandler receives streamed prices between ticks.
type PriceHandler func(symbol string, price float64)

// miniTicker is the subset of the Binance miniTicker payload we consume.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// BinanceWSFeed streams miniTicker updates for the live symbols so position
// marks move between REST refreshes. It reconnects on disconnect.
type BinanceWSFeed struct {
	wsURL     string
	pairs     map[string]string // Binance pair -> ledger symbol
	onPrice   PriceHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewBinanceWSFeed creates a feed for the given symbol mapping (ledger
// symbol -> Binance pair, as in the REST feed config).
func NewBinanceWSFeed(wsURL string, live map[string]string, onPrice PriceHandler, logger *slog.Logger) *BinanceWSFeed {
	if wsURL == "" {
		wsURL = DefaultBinanceWSURL
	}
	pairs := make(map[string]string, len(live))
	for symbol, pair := range live {
		pairs[strings.ToUpper(pair)] = symbol
	}
	return &BinanceWSFeed{
		wsURL:   wsURL,
		pairs:   pairs,
		onPrice: onPrice,
		logger:  logger.With(slog.String("component", "binance_ws_feed")),
		done:    make(chan struct{}),
	}
}

// Run connects and streams until ctx is cancelled. Reconnects with backoff
// on disconnect.
func (f *BinanceWSFeed) Run(ctx context.Context) error {
	if len(f.pairs) == 0 {
		f.logger.Info("no live symbols to stream, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("binance ws disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *BinanceWSFeed) runConnection(ctx context.Context) error {
	streams := make([]string, 0, len(f.pairs))
	for pair := range f.pairs {
		streams = append(streams, strings.ToLower(pair)+"@miniTicker")
	}
	url := f.wsURL + "/" + strings.Join(streams, "/")

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("feed: dial binance ws: %w", err)
	}
	defer conn.Close()

	f.logger.Info("binance ws connected", slog.Int("streams", len(streams)))

	// Unblock ReadMessage when the context ends.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: binance ws read: %w", err)
		}

		var tick miniTicker
		if err := json.Unmarshal(data, &tick); err != nil {
			f.logger.Debug("skipping unparseable ws message", slog.Int("payload_len", len(data)))
			continue
		}
		symbol, ok := f.pairs[strings.ToUpper(tick.Symbol)]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(tick.Close, 64)
		if err != nil || price <= 0 {
			continue
		}
		if f.onPrice != nil {
			f.onPrice(symbol, price)
		}
	}
}

// Close stops the feed.
func (f *BinanceWSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
