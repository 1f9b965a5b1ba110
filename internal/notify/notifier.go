// Package notify delivers trade and liquidation alerts to operators.
// Notifications are dispatched to all registered senders (Telegram, Discord)
// and can be filtered by event type so operators receive only the alerts
// they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clawlabs/arenabot/internal/domain"
)

// Event types the notifier can filter on.
const (
	EventTrade       = "trade"
	EventLiquidation = "liquidation"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; events not in the set are dropped. Dispatch
// failures are logged, never propagated to the trading path.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. If
// events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// TradeExecuted announces a filled BUY or SELL.
func (n *Notifier) TradeExecuted(ctx context.Context, record domain.TradeRecord) {
	title := fmt.Sprintf("%s %s", record.Action, record.Asset)
	message := fmt.Sprintf("%.4f @ $%.2f | size $%.0f | fee $%.2f | balance $%.2f",
		record.Quantity, record.Price, record.DollarSize, record.Fee, record.BalanceAfter)
	if record.Action == domain.ActionSell {
		message += fmt.Sprintf(" | PnL %+.2f", record.PnL)
	}
	if record.Reasoning != "" {
		message += "\n" + record.Reasoning
	}
	n.notify(ctx, EventTrade, title, message)
}

// Liquidated announces a portfolio reset.
func (n *Notifier) Liquidated(ctx context.Context, record domain.TradeRecord) {
	title := "PORTFOLIO LIQUIDATED"
	message := fmt.Sprintf("Equity $%.0f, PnL %+.2f. Balance reset to $%.0f.",
		record.DollarSize, record.PnL, record.BalanceAfter)
	n.notify(ctx, EventLiquidation, title, message)
}

func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}
