package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/strategy"
)

const decisionSystemPrompt = `You are a disciplined crypto paper-trading bot managing a virtual portfolio.
Rules:
- You may open at most one position per asset, long only.
- Position sizing uses the Kelly criterion from your w (win probability) and r (reward/risk ratio) estimates; be honest about uncertainty.
- Respond with a single JSON object and nothing else:
  {"action":"BUY"|"SELL"|"HOLD","asset":"<symbol>","reasoning":"<1-3 sentences>","w":<0.1-0.9>,"r":<0.5-5.0>,"styleSummary":"<2-4 word label of your current style>"}
- "asset" may be empty for HOLD.
- SELL only assets you currently hold; BUY only assets you do not.`

// decisionMessages builds the chat payload for one decision: system rules
// plus the serialized portfolio snapshot.
func decisionMessages(req strategy.DecisionRequest) ([]chatMessage, error) {
	snapshot, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Current portfolio state:\n")
	sb.Write(snapshot)
	if len(req.Instructions) > 0 {
		sb.WriteString("\n\nOwner instructions (follow when they do not violate the rules):\n")
		for _, inst := range req.Instructions {
			sb.WriteString("- ")
			sb.WriteString(inst)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\nDecide your next action.")

	return []chatMessage{
		{Role: "system", Content: decisionSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, nil
}

const trainSystemPrompt = `You label trading bots. Given a bot's owner instructions and recent trades, reply with only a 2-4 word style label (e.g. "Cautious Dip Buyer", "Aggressive Momentum Chaser"). No quotes, no punctuation beyond spaces.`

// trainMessages builds the chat payload for style summarization.
func trainMessages(instructions []string, trades []domain.TradeRecord) ([]chatMessage, error) {
	var sb strings.Builder
	sb.WriteString("Owner instructions:\n")
	if len(instructions) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, inst := range instructions {
		sb.WriteString("- ")
		sb.WriteString(inst)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRecent trades:\n")
	if len(trades) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, t := range trades {
		fmt.Fprintf(&sb, "- %s %s $%.0f pnl %+.2f: %s\n", t.Action, t.Asset, t.DollarSize, t.PnL, t.Reasoning)
	}

	return []chatMessage{
		{Role: "system", Content: trainSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, nil
}
