package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawlabs/arenabot/internal/domain"
)

func newTestLedger(t *testing.T, opts ...func(*Config)) *Ledger {
	t.Helper()
	cfg := Config{
		Assets: []domain.MarketAsset{
			{Symbol: "BTC", Price: 100, MA30: 100, PriceHistory: []float64{100}},
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

func TestNewLedger(t *testing.T) {
	l := newTestLedger(t)

	assert.Equal(t, float64(InitialCapital), l.Balance())
	assert.Equal(t, float64(InitialCapital), l.Equity())
	assert.Equal(t, 0, l.RestartCount())
	assert.Empty(t, l.OpenPositions())
	assert.Equal(t, domain.BotMartingale, l.ActiveBot())

	// Seed equity point and boot thought.
	assert.Len(t, l.EquityHistory(0), 1)
	require.NotEmpty(t, l.Thoughts(0))
	assert.Equal(t, domain.ThoughtSys, l.Thoughts(0)[0].Level)
}

func TestExecuteTradeBuy(t *testing.T) {
	l := newTestLedger(t)

	record, err := l.ExecuteTrade(domain.TradeInput{
		Asset: "BTC", Action: domain.ActionBuy,
		W: 0.6, R: 1.5, Reasoning: "dip below moving average",
	}, domain.BotMartingale)
	require.NoError(t, err)

	// Quarter-Kelly of 100k at W=0.6 R=1.5 is $8333.33, plus 0.1% fee.
	assert.InDelta(t, 8333.33, record.DollarSize, 0.01)
	assert.InDelta(t, 8.33, record.Fee, 0.01)
	assert.InDelta(t, 91658.33, record.BalanceAfter, 0.01)
	assert.InDelta(t, 91658.33, l.Balance(), 0.01)
	assert.Zero(t, record.PnL)
	assert.Equal(t, domain.ActionBuy, record.Action)
	assert.NotEmpty(t, record.ID)

	positions := l.OpenPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, "BTC", positions[0].Asset)
	assert.Equal(t, 100.0, positions[0].EntryPrice)
	assert.Equal(t, domain.SideLong, positions[0].Side)

	// Equity is balance plus unrealized P&L, which is zero at entry, so a
	// BUY removes the full position cost (plus fee) from equity.
	assert.InDelta(t, 91658.33, l.Equity(), 0.01)

	// Recovering the entry price point-for-point restores nothing: the
	// position's P&L stays zero until the price moves.
	l.ApplyPrice("BTC", 100)
	assert.InDelta(t, 91658.33, l.Equity(), 0.01)
	l.ApplyPrice("BTC", 110)
	assert.InDelta(t, 91658.33+10*record.Quantity, l.Equity(), 0.01)
}

func TestExecuteTradeBuyRejectedWhenPositionOpen(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)
	before := l.Balance()

	_, err = l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	assert.ErrorIs(t, err, domain.ErrPositionExists)
	assert.Equal(t, before, l.Balance())
	assert.Len(t, l.OpenPositions(), 1)
	assert.Len(t, l.Trades(0), 1)
}

func TestExecuteTradeSellWithoutPosition(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
	assert.ErrorIs(t, err, domain.ErrNoOpenPosition)
	assert.Equal(t, float64(InitialCapital), l.Balance())
	assert.Empty(t, l.Trades(0))

	// The rejection leaves a WARN in the thought stream.
	thoughts := l.Thoughts(0)
	last := thoughts[len(thoughts)-1]
	assert.Equal(t, domain.ThoughtWarn, last.Level)
}

func TestExecuteTradeUnknownPrice(t *testing.T) {
	l := New(Config{Assets: []domain.MarketAsset{{Symbol: "BTC"}}})

	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	assert.ErrorIs(t, err, domain.ErrUnknownAsset)
}

func TestRoundTripProfit(t *testing.T) {
	l := newTestLedger(t)

	buy, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)

	l.ApplyPrice("BTC", 110)

	pos := l.OpenPositions()[0]
	assert.InDelta(t, (110-100)*buy.Quantity, pos.UnrealizedPnL, 1e-9)

	sell, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)

	assert.InDelta(t, (110-100)*buy.Quantity, sell.PnL, 1e-9)
	assert.Empty(t, l.OpenPositions())

	proceeds := buy.Quantity * 110
	wantBalance := buy.BalanceAfter + proceeds - proceeds*FeeRate
	assert.InDelta(t, wantBalance, l.Balance(), 1e-6)
	assert.InDelta(t, wantBalance, l.Equity(), 1e-6)

	// Newest first.
	trades := l.Trades(0)
	require.Len(t, trades, 2)
	assert.Equal(t, domain.ActionSell, trades[0].Action)
	assert.Equal(t, domain.ActionBuy, trades[1].Action)
}

func TestLargeBuyDrainsEquity(t *testing.T) {
	l := newTestLedger(t)

	// Quarter-Kelly at W=0.9 R=5 is 22% of the balance: a $22,000 position.
	record, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.9, R: 5}, domain.BotMartingale)
	require.NoError(t, err)
	assert.InDelta(t, 22_000, record.DollarSize, 0.01)
	assert.InDelta(t, 77_978, l.Balance(), 0.01)

	// With zero unrealized P&L the position cost is gone from equity, so
	// this single entry already sits below the liquidation threshold.
	assert.InDelta(t, 77_978, l.Equity(), 0.01)
	assert.Less(t, l.Equity(), float64(LiquidationThreshold))
}

func TestTriggerLiquidation(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.9, R: 5}, domain.BotMartingale)
	require.NoError(t, err)

	// Crash the price so equity falls below the reset threshold.
	l.ApplyPrice("BTC", 50)
	equity := l.Equity()
	require.Less(t, equity, 90_000.0)

	record := l.TriggerLiquidation()

	assert.Equal(t, domain.ActionLiquidation, record.Action)
	assert.InDelta(t, equity-InitialCapital, record.PnL, 1e-6)
	assert.Equal(t, float64(InitialCapital), record.BalanceAfter)

	assert.Equal(t, float64(InitialCapital), l.Balance())
	assert.Equal(t, float64(InitialCapital), l.Equity())
	assert.Empty(t, l.OpenPositions())
	assert.Equal(t, 1, l.RestartCount())

	// History survives the reset; the liquidation record is newest.
	trades := l.Trades(0)
	require.NotEmpty(t, trades)
	assert.Equal(t, domain.ActionLiquidation, trades[0].Action)

	thoughts := l.Thoughts(0)
	last := thoughts[len(thoughts)-1]
	assert.Equal(t, domain.ThoughtLiquidation, last.Level)
}

func TestThoughtStreamCap(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < MaxThoughts+50; i++ {
		l.AddThought(domain.ThoughtSys, fmt.Sprintf("entry %d", i))
	}

	thoughts := l.Thoughts(0)
	assert.Len(t, thoughts, MaxThoughts)
	assert.Equal(t, fmt.Sprintf("entry %d", MaxThoughts+49), thoughts[len(thoughts)-1].Message)
}

func TestEquityHistoryCap(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < MaxEquityHistory+10; i++ {
		l.RecordEquity()
	}
	assert.Len(t, l.EquityHistory(0), MaxEquityHistory)
	assert.Len(t, l.EquityHistory(100), 100)
}

type captureArchiver struct {
	mu      sync.Mutex
	evicted []domain.TradeRecord
	ch      chan struct{}
}

func (a *captureArchiver) Archive(_ context.Context, trades []domain.TradeRecord) error {
	a.mu.Lock()
	a.evicted = append(a.evicted, trades...)
	a.mu.Unlock()
	select {
	case a.ch <- struct{}{}:
	default:
	}
	return nil
}

func TestTradeHistoryCapArchivesEvicted(t *testing.T) {
	arch := &captureArchiver{ch: make(chan struct{}, 1)}
	l := newTestLedger(t, func(cfg *Config) { cfg.Archiver = arch })

	for i := 0; i < (MaxTradeHistory+2)/2; i++ {
		_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
		require.NoError(t, err)
		_, err = l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
		require.NoError(t, err)
	}

	assert.Len(t, l.Trades(0), MaxTradeHistory)

	select {
	case <-arch.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("archiver was not invoked")
	}
	arch.mu.Lock()
	defer arch.mu.Unlock()
	assert.NotEmpty(t, arch.evicted)
}

func TestRecentSellOutcomes(t *testing.T) {
	l := newTestLedger(t, func(cfg *Config) {
		cfg.Assets = append(cfg.Assets, domain.MarketAsset{
			Symbol: "ETH", Price: 100, MA30: 100, PriceHistory: []float64{100},
		})
	})

	// Two round trips in different assets: a BTC loss, then an ETH win. The
	// lookback pools them; a future BTC signal sizes from the ETH outcome too.
	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)
	l.ApplyPrice("BTC", 95)
	_, err = l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)

	_, err = l.ExecuteTrade(domain.TradeInput{Asset: "ETH", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)
	l.ApplyPrice("ETH", 112)
	_, err = l.ExecuteTrade(domain.TradeInput{Asset: "ETH", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)

	outcomes, records := l.RecentSellOutcomes(20)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0])  // newest first: the ETH win
	assert.False(t, outcomes[1]) // then the BTC loss
	require.Len(t, records, 2)
	assert.Equal(t, "ETH", records[0].Asset)
	assert.Equal(t, "BTC", records[1].Asset)
}

func TestStats(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionBuy, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)
	l.ApplyPrice("BTC", 110)
	sell, err := l.ExecuteTrade(domain.TradeInput{Asset: "BTC", Action: domain.ActionSell, W: 0.6, R: 1.5}, domain.BotMartingale)
	require.NoError(t, err)

	s := l.Stats()
	assert.Equal(t, 2, s.TradeCount)
	assert.Equal(t, 1.0, s.WinRate)
	assert.InDelta(t, sell.PnL, s.BiggestWin, 1e-9)
	assert.Zero(t, s.BiggestLoss)
	assert.Greater(t, s.TotalVolume, 0.0)
	assert.Greater(t, s.TotalFees, 0.0)
	assert.InDelta(t, s.Equity-InitialCapital, s.PnLDollar, 1e-9)
}
