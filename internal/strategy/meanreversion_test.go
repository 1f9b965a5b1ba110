package strategy

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawlabs/arenabot/internal/domain"
)

type fakeView struct {
	assets    []domain.MarketAsset
	positions map[string]bool
	balance   float64
	outcomes  []bool
	records   []domain.TradeRecord
}

func (f *fakeView) Assets() []domain.MarketAsset    { return f.assets }
func (f *fakeView) OpenPositions() []domain.Position { return nil }
func (f *fakeView) HasPosition(symbol string) bool  { return f.positions[symbol] }
func (f *fakeView) Balance() float64                { return f.balance }
func (f *fakeView) Equity() float64                 { return f.balance }
func (f *fakeView) Trades(int) []domain.TradeRecord { return f.records }
func (f *fakeView) Instructions() []string          { return nil }
func (f *fakeView) RecentSellOutcomes(int) ([]bool, []domain.TradeRecord) {
	return f.outcomes, f.records
}

func asset(symbol string, price, ma float64) domain.MarketAsset {
	return domain.MarketAsset{Symbol: symbol, Price: price, MA30: ma, PriceHistory: []float64{ma}}
}

func TestAnalyze(t *testing.T) {
	noPos := func(string) bool { return false }
	withPos := func(string) bool { return true }

	t.Run("buy below threshold without position", func(t *testing.T) {
		signals := Analyze([]domain.MarketAsset{asset("BTC", 97, 100)}, noPos)
		require.Len(t, signals, 1)
		assert.Equal(t, domain.DecisionBuy, signals[0].Action)
		assert.InDelta(t, -0.03, signals[0].Deviation, 1e-9)
	})

	t.Run("no buy when position already open", func(t *testing.T) {
		signals := Analyze([]domain.MarketAsset{asset("BTC", 97, 100)}, withPos)
		assert.Empty(t, signals)
	})

	t.Run("sell above threshold with position", func(t *testing.T) {
		signals := Analyze([]domain.MarketAsset{asset("BTC", 103, 100)}, withPos)
		require.Len(t, signals, 1)
		assert.Equal(t, domain.DecisionSell, signals[0].Action)
	})

	t.Run("no sell without position", func(t *testing.T) {
		signals := Analyze([]domain.MarketAsset{asset("BTC", 103, 100)}, noPos)
		assert.Empty(t, signals)
	})

	t.Run("inside band produces nothing", func(t *testing.T) {
		assets := []domain.MarketAsset{asset("BTC", 101, 100), asset("ETH", 99, 100)}
		assert.Empty(t, Analyze(assets, noPos))
		assert.Empty(t, Analyze(assets, withPos))
	})

	t.Run("skips assets without an average", func(t *testing.T) {
		signals := Analyze([]domain.MarketAsset{{Symbol: "BTC", Price: 100}}, noPos)
		assert.Empty(t, signals)
	})
}

func TestStrongest(t *testing.T) {
	_, ok := Strongest(nil)
	assert.False(t, ok)

	signals := []Signal{
		{Asset: "BTC", Deviation: -0.025},
		{Asset: "ETH", Deviation: 0.06},
		{Asset: "SOL", Deviation: -0.03},
	}
	best, ok := Strongest(signals)
	require.True(t, ok)
	assert.Equal(t, "ETH", best.Asset)
}

func TestMeanReversionDecide(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	m := NewMeanReversion(logger)

	t.Run("holds when flat", func(t *testing.T) {
		view := &fakeView{
			assets:    []domain.MarketAsset{asset("BTC", 100.5, 100)},
			positions: map[string]bool{},
			balance:   100_000,
		}
		decision, err := m.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionHold, decision.Action)
	})

	t.Run("buys the strongest dip with neutral priors", func(t *testing.T) {
		view := &fakeView{
			assets: []domain.MarketAsset{
				asset("BTC", 97.5, 100),
				asset("ETH", 96, 100),
			},
			positions: map[string]bool{},
			balance:   100_000,
		}
		decision, err := m.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionBuy, decision.Action)
		assert.Equal(t, "ETH", decision.Asset)
		assert.Equal(t, 0.5, decision.W)
		assert.Equal(t, 1.0, decision.R)
		assert.NotEmpty(t, decision.Reasoning)
	})

	t.Run("derives W from recent sells", func(t *testing.T) {
		view := &fakeView{
			assets:    []domain.MarketAsset{asset("BTC", 97, 100)},
			positions: map[string]bool{},
			balance:   100_000,
			outcomes:  []bool{true, true, true, false},
			records: []domain.TradeRecord{
				{PnL: 300, DollarSize: 1000},
				{PnL: 100, DollarSize: 1000},
				{PnL: 200, DollarSize: 1000},
				{PnL: -200, DollarSize: 1000},
			},
		}
		decision, err := m.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, 0.75, decision.W)
		assert.InDelta(t, 1.0, decision.R, 1e-9) // avg win 200 / avg loss 200
	})

	t.Run("reasoning carries the derived figures", func(t *testing.T) {
		view := &fakeView{
			assets:    []domain.MarketAsset{asset("BTC", 97, 100)},
			positions: map[string]bool{},
			balance:   100_000,
			outcomes:  []bool{true, true, true, false},
			records: []domain.TradeRecord{
				{PnL: 300, DollarSize: 1000},
				{PnL: 100, DollarSize: 1000},
				{PnL: 200, DollarSize: 1000},
				{PnL: -200, DollarSize: 1000},
			},
		}
		decision, err := m.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Contains(t, decision.Reasoning, "W=0.75")
		assert.Contains(t, decision.Reasoning, "R=1.00")

		sellView := &fakeView{
			assets:    []domain.MarketAsset{asset("BTC", 103, 100)},
			positions: map[string]bool{"BTC": true},
			balance:   100_000,
		}
		decision, err = m.Decide(context.Background(), sellView)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSell, decision.Action)
		assert.Contains(t, decision.Reasoning, "W=0.50")
		assert.Contains(t, decision.Reasoning, "R=1.00")
	})
}

type fakeProvider struct {
	decision domain.TradeDecision
	err      error
}

func (f *fakeProvider) Decide(context.Context, DecisionRequest) (domain.TradeDecision, error) {
	return f.decision, f.err
}

func TestRemoteDecide(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	view := &fakeView{assets: []domain.MarketAsset{asset("BTC", 100, 100)}, balance: 100_000}

	t.Run("clamps advisor output", func(t *testing.T) {
		r := NewRemote(&fakeProvider{decision: domain.TradeDecision{
			Action: domain.DecisionBuy, Asset: "BTC", W: 0.99, R: 12,
		}}, logger)
		decision, err := r.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxW, decision.W)
		assert.Equal(t, domain.MaxR, decision.R)
	})

	t.Run("degrades to hold on advisor failure", func(t *testing.T) {
		r := NewRemote(&fakeProvider{err: errors.New("upstream timeout")}, logger)
		decision, err := r.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionHold, decision.Action)
	})

	t.Run("holds when no provider configured", func(t *testing.T) {
		r := NewRemote(nil, logger)
		decision, err := r.Decide(context.Background(), view)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionHold, decision.Action)
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	logger := slog.New(slog.DiscardHandler)

	reg.Register(string(domain.BotMartingale), NewMeanReversion(logger))
	reg.Register(string(domain.BotOpenClaw), NewExternal(logger))

	s, err := reg.Get("martingale")
	require.NoError(t, err)
	assert.Equal(t, "martingale", s.Name())

	_, err = reg.Get("missing")
	assert.Error(t, err)

	assert.Equal(t, []string{"martingale", "openclaw"}, reg.List())
}
