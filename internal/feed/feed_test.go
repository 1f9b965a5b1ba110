package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/ledger"
)

func TestSimulatorStep(t *testing.T) {
	sim := NewSimulator(0.008, rand.NewPCG(1, 2))

	price := 100.0
	for i := 0; i < 1000; i++ {
		next := sim.Step(price)
		// One step moves at most volatility in either direction.
		assert.InDelta(t, price, next, price*0.009)
		assert.Greater(t, next, 0.0)
		price = next
	}

	assert.Equal(t, 0.0, sim.Step(0))
}

func newBinanceStub(t *testing.T, price float64, closes []float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/ticker/price", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"symbol":%q,"price":"%.2f"}`, r.URL.Query().Get("symbol"), price)
	})
	mux.HandleFunc("GET /api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(klinesJSON(closes)))
	})
	return httptest.NewServer(mux)
}

func klinesJSON(closes []float64) string {
	out := "["
	for i, c := range closes {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`[1700000000000,"1","2","0.5","%.2f","100",1700000059999]`, c)
	}
	return out + "]"
}

func TestBinanceFetchQuote(t *testing.T) {
	closes := make([]float64, 31)
	for i := range closes {
		closes[i] = 100 + float64(i) // 100..130, prev close 129
	}
	srv := newBinanceStub(t, 135.50, closes)
	defer srv.Close()

	client := NewBinanceClient(srv.URL, time.Second)
	quote, err := client.FetchQuote(context.Background(), "BTC", "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, 135.50, quote.Price)
	assert.Len(t, quote.History, 30) // last 30 of 31
	// MA over closes 101..130.
	assert.InDelta(t, 115.5, quote.MA30, 1e-9)
	assert.InDelta(t, (135.50-129)/129*100, quote.Change24h, 1e-9)
}

func TestBinanceFetchQuoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewBinanceClient(srv.URL, time.Second)
	_, err := client.FetchQuote(context.Background(), "BTC", "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

type fakeCache struct {
	mu     sync.Mutex
	quotes map[string][4]float64
	sets   int
}

func (c *fakeCache) SetQuote(_ context.Context, symbol string, price, ma30, change24h float64, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quotes == nil {
		c.quotes = map[string][4]float64{}
	}
	c.quotes[symbol] = [4]float64{price, ma30, change24h}
	c.sets++
	return nil
}

func (c *fakeCache) GetQuote(_ context.Context, symbol string) (float64, float64, float64, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[symbol]
	if !ok {
		return 0, 0, 0, time.Time{}, errors.New("miss")
	}
	return q[0], q[1], q[2], time.Now(), nil
}

func newFeedLedger() *ledger.Ledger {
	return ledger.New(ledger.Config{
		Assets: []domain.MarketAsset{
			{Symbol: "BTC", Price: 100, MA30: 100, PriceHistory: []float64{100}},
			{Symbol: "CLAW", Price: 10, MA30: 10, PriceHistory: []float64{10}},
		},
	})
}

func TestRefreshLiveAndSimulated(t *testing.T) {
	closes := make([]float64, 31)
	for i := range closes {
		closes[i] = 50000
	}
	srv := newBinanceStub(t, 51000, closes)
	defer srv.Close()

	l := newFeedLedger()
	cache := &fakeCache{}
	f := New(Config{
		Ledger:  l,
		Binance: NewBinanceClient(srv.URL, time.Second),
		Cache:   cache,
		Live:    map[string]string{"BTC": "BTCUSDT"},
		Logger:  slog.New(slog.DiscardHandler),
	})

	require.NoError(t, f.Refresh(context.Background()))

	btc, ok := l.Asset("BTC")
	require.True(t, ok)
	assert.Equal(t, 51000.0, btc.Price)
	assert.Equal(t, 50000.0, btc.MA30)
	assert.False(t, btc.LiveAt.IsZero())

	claw, ok := l.Asset("CLAW")
	require.True(t, ok)
	assert.NotEqual(t, 10.0, claw.Price) // walked by the simulator
	assert.InDelta(t, 10.0, claw.Price, 10.0*0.009)

	assert.Equal(t, 1, cache.sets)
}

func TestRefreshFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := newFeedLedger()
	cache := &fakeCache{}
	require.NoError(t, cache.SetQuote(context.Background(), "BTC", 49500, 50000, -1, time.Now()))

	f := New(Config{
		Ledger:  l,
		Binance: NewBinanceClient(srv.URL, time.Second),
		Cache:   cache,
		Live:    map[string]string{"BTC": "BTCUSDT"},
		Logger:  slog.New(slog.DiscardHandler),
	})

	err := f.Refresh(context.Background())
	require.Error(t, err) // surfaced for logging

	btc, ok := l.Asset("BTC")
	require.True(t, ok)
	assert.Equal(t, 49500.0, btc.Price)
}

func TestRefreshSimulatesWithoutBinance(t *testing.T) {
	l := newFeedLedger()
	f := New(Config{Ledger: l, Logger: slog.New(slog.DiscardHandler)})

	require.NoError(t, f.Refresh(context.Background()))

	btc, ok := l.Asset("BTC")
	require.True(t, ok)
	assert.NotEqual(t, 100.0, btc.Price)
}
