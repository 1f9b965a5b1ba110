package domain

import "time"

// ThoughtLevel classifies a thought-stream entry.
type ThoughtLevel string

const (
	ThoughtTrade       ThoughtLevel = "TRADE"
	ThoughtSys         ThoughtLevel = "SYS"
	ThoughtWarn        ThoughtLevel = "WARN"
	ThoughtLiquidation ThoughtLevel = "LIQUIDATION"
	ThoughtAI          ThoughtLevel = "AI"
	ThoughtKelly       ThoughtLevel = "KELLY"
)

// ThoughtEntry is one line of the bot's audit/log stream. The stream must be
// complete enough to reconstruct why each trade or skip happened.
type ThoughtEntry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Level     ThoughtLevel `json:"level"`
	Message   string       `json:"message"`
}

// EquityPoint is a timestamped equity snapshot, appended once per tick and
// retained in a bounded rolling window to drive the performance chart.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}
