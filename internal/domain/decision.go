package domain

// DecisionAction is the action requested by a decision source (remote LLM or
// externally-hosted bot). HOLD is a first-class outcome, not an error.
type DecisionAction string

const (
	DecisionBuy  DecisionAction = "BUY"
	DecisionSell DecisionAction = "SELL"
	DecisionHold DecisionAction = "HOLD"
)

// Decision bounds. Out-of-range values from a decision source are clamped,
// never rejected.
const (
	MinW = 0.1
	MaxW = 0.9
	MinR = 0.5
	MaxR = 5.0
)

// TradeDecision is a BUY/SELL/HOLD verdict with the confidence figures used
// for Kelly sizing and a mandatory human-readable justification.
type TradeDecision struct {
	Action       DecisionAction `json:"action"`
	Asset        string         `json:"asset"`
	Reasoning    string         `json:"reasoning"`
	W            float64        `json:"w"`
	R            float64        `json:"r"`
	StyleSummary string         `json:"styleSummary,omitempty"`
}

// Clamp forces W and R into their allowed ranges in place.
func (d *TradeDecision) Clamp() {
	d.W = clamp(d.W, MinW, MaxW)
	d.R = clamp(d.R, MinR, MaxR)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
