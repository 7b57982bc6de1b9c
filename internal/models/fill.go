package models

// FillPayload is the Fill's `payload` field.
type FillPayload struct {
	CorrID        string  `json:"corrId"`
	LegIndex      int     `json:"legIndex"`
	Exchange      string  `json:"exchange"`
	InstrumentID  string  `json:"instrumentId"`
	Side          Side    `json:"side"`
	Px            float64 `json:"px"`
	RequestedSize float64 `json:"requestedSize"`
	FilledSize    float64 `json:"filledSize"`
	Mode          string  `json:"mode,omitempty"`
}

// Fill is emitted by the Order Simulator. At most one Fill is emitted per
// (corrId, legIndex).
type Fill struct {
	ID      string      `json:"id"`
	Ts      int64       `json:"ts"`
	Type    string      `json:"type"`
	Payload FillPayload `json:"payload"`
}

const FillEntryType = "order.fill"
