package models

// Mode provenance: a Trade's mode equals the Opportunity's paper flag,
// never the global toggle at emit time.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Source identifies which of the two trade emitters produced the Trade.
// The UI filters by source="executor" and taken=true; accounting accepts
// either.
const (
	SourceExecutor  = "executor"
	SourceAssembler = "assembler"
)

// TradeLeg is the settled counterpart of a Leg, carrying the fill that
// closed it.
type TradeLeg struct {
	Exchange     string  `json:"exchange"`
	InstrumentID string  `json:"instrumentId"`
	Side         Side    `json:"side"`
	Px           float64 `json:"px"`
	FilledSize   float64 `json:"filledSize"`
}

// Trade is emitted on arb.trades by either the executor or the assembler.
type Trade struct {
	Ts          int64      `json:"ts"`
	Mode        string     `json:"mode"`
	Legs        []TradeLeg `json:"legs"`
	RealizedPnl float64    `json:"realizedPnl"`
	Taken       bool       `json:"taken"`
	Approved    bool       `json:"approved"`
	Source      string     `json:"source"`
	CorrID      string     `json:"corrId,omitempty"`
}

func ModeFromPaper(paper bool) string {
	if paper {
		return ModePaper
	}
	return ModeLive
}
