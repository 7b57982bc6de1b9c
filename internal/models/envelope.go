package models

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EntryType values tag the `type` field of every envelope on the bus.
const (
	EntryTypeOpportunity = "opportunity.new"
	EntryTypeTrade       = "trade.new"
)

// Envelope is the shape shared by every message on the bus: a bus-assigned
// id, a bus wall-clock timestamp, a type tag, and an opaque payload. Decode
// into a concrete type (Opportunity, Order, Fill, Trade) once the type tag
// is known.
type Envelope struct {
	ID      string          `json:"id"`
	Ts      int64           `json:"ts"`
	Type    string          `json:"type,omitempty"`
	Payload jsoniter.RawMessage `json:"payload"`
}

// Marshal encodes v using the module-wide json-iterator codec.
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes data into v using the module-wide json-iterator codec.
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
