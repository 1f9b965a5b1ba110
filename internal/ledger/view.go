package ledger

import (
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
)

// Balance returns the free cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// RestartCount returns the number of liquidation resets since process start.
func (l *Ledger) RestartCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restartCount
}

// StartedAt returns when this portfolio began trading.
func (l *Ledger) StartedAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startedAt
}

// OpenPositions returns copies of all open positions.
func (l *Ledger) OpenPositions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Position, 0, len(l.positions))
	for _, sym := range l.symbols {
		if pos, ok := l.positions[sym]; ok {
			out = append(out, *pos)
		}
	}
	return out
}

// HasPosition reports whether an open position exists for the symbol.
func (l *Ledger) HasPosition(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.positions[symbol]
	return ok
}

// Assets returns copies of the tracked market assets in stable order.
func (l *Ledger) Assets() []domain.MarketAsset {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.MarketAsset, 0, len(l.symbols))
	for _, sym := range l.symbols {
		a := *l.assets[sym]
		a.PriceHistory = append([]float64(nil), a.PriceHistory...)
		out = append(out, a)
	}
	return out
}

// Asset returns a copy of one tracked asset.
func (l *Ledger) Asset(symbol string) (domain.MarketAsset, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.assets[symbol]
	if !ok {
		return domain.MarketAsset{}, false
	}
	cp := *a
	cp.PriceHistory = append([]float64(nil), a.PriceHistory...)
	return cp, true
}

// Trades returns up to limit records, newest first. limit <= 0 returns all.
func (l *Ledger) Trades(limit int) []domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.history)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]domain.TradeRecord(nil), l.history[:n]...)
}

// EquityHistory returns up to limit points, oldest first. limit <= 0 returns
// all retained points.
func (l *Ledger) EquityHistory(limit int) []domain.EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	points := l.equity
	if limit > 0 && limit < len(points) {
		points = points[len(points)-limit:]
	}
	return append([]domain.EquityPoint(nil), points...)
}

// Thoughts returns up to limit entries, oldest first.
func (l *Ledger) Thoughts(limit int) []domain.ThoughtEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.thoughts
	if limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	return append([]domain.ThoughtEntry(nil), entries...)
}

// ActiveBot returns the strategy currently in control.
func (l *Ledger) ActiveBot() domain.BotType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeBot
}

// SetActiveBot switches control to another strategy. Open positions and
// history carry over; only decision-making changes.
func (l *Ledger) SetActiveBot(bot domain.BotType) {
	l.mu.Lock()
	l.activeBot = bot
	pending := l.addThoughtLocked(domain.ThoughtSys, "Active bot switched to "+string(bot)+".")
	l.mu.Unlock()
	l.publish(pending)
}

// Instructions returns the custom trading instructions, newest last.
func (l *Ledger) Instructions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.instructions...)
}

// SetInstructions replaces the custom trading instructions.
func (l *Ledger) SetInstructions(instructions []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.instructions = append(l.instructions[:0], instructions...)
}

// StyleSummary returns the short label describing the current trading style.
func (l *Ledger) StyleSummary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.styleSummary
}

// SetStyleSummary updates the style label, ignoring empty values.
func (l *Ledger) SetStyleSummary(summary string) {
	if summary == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.styleSummary = summary
}
