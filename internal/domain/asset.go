package domain

import "time"

// MaxPriceHistory is the number of recent prices retained per asset. The
// 30-period moving average is recomputed from this window on every tick.
const MaxPriceHistory = 30

// MarketAsset is the current state of one tradable instrument. One instance
// exists per symbol; it is created at startup and mutated on every price tick.
type MarketAsset struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Change24h    float64   `json:"change24h"`
	MA30         float64   `json:"ma30"`
	PriceHistory []float64 `json:"priceHistory"`
	LiveAt       time.Time `json:"liveAt,omitzero"` // zero until first live feed fetch
}

// PushPrice appends a new observation to the bounded rolling window and
// recomputes the moving average incrementally.
func (a *MarketAsset) PushPrice(price float64) {
	a.Price = price
	if len(a.PriceHistory) >= MaxPriceHistory {
		a.PriceHistory = append(a.PriceHistory[len(a.PriceHistory)-MaxPriceHistory+1:], price)
	} else {
		a.PriceHistory = append(a.PriceHistory, price)
	}

	var sum float64
	for _, p := range a.PriceHistory {
		sum += p
	}
	if len(a.PriceHistory) > 0 {
		a.MA30 = sum / float64(len(a.PriceHistory))
	}
}

// Deviation returns the fractional distance of the current price from the
// 30-period moving average. Zero when no average is available yet.
func (a MarketAsset) Deviation() float64 {
	if a.MA30 == 0 {
		return 0
	}
	return (a.Price - a.MA30) / a.MA30
}

// PricePoint is a single timestamped price observation, used when shipping
// recent history to the remote decision endpoint.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Asset     string    `json:"asset"`
	Price     float64   `json:"price"`
}
