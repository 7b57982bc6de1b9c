package models

// QuoteSnapshot is the top-of-book view written by external market-data
// adapters to key quote:<venue>:<instrumentId>. Read-only to the core.
type QuoteSnapshot struct {
	Venue        string  `json:"venue"`
	InstrumentID string  `json:"instrumentId"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Ts           int64   `json:"ts"`
}

// Age returns tNow - q.Ts in milliseconds. Both values must come from the
// bus wall-clock, never the local host clock.
func (q QuoteSnapshot) Age(tNow int64) int64 {
	return tNow - q.Ts
}
