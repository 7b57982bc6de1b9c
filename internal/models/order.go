package models

// TIF is always IOC in this core.
const TIFIoc = "IOC"

// OrderPayload is the Order's `payload` field; it carries the reordered
// Leg fields plus routing metadata.
type OrderPayload struct {
	CorrID       string  `json:"corrId"`
	LegIndex     int     `json:"legIndex"`
	TIF          string  `json:"tif"`
	Exchange     string  `json:"exchange"`
	InstrumentID string  `json:"instrumentId"`
	Side         Side    `json:"side"`
	EstPx        float64 `json:"estPx"`
	Size         float64 `json:"size"`
	Mode         string  `json:"mode,omitempty"`
}

// Order is emitted by the Router-Executor and consumed by the Order
// Simulator.
type Order struct {
	ID      string       `json:"id"`
	Ts      int64        `json:"ts"`
	Type    string       `json:"type"`
	Payload OrderPayload `json:"payload"`
}

const OrderEntryType = "order.new"

// NewOrder builds an Order envelope for the given leg of corrId at ts.
// mode carries the parent Opportunity's paper/live provenance through
// to the Fill the simulator emits for this Order.
func NewOrder(id string, ts int64, corrID string, legIndex int, leg Leg, mode string) Order {
	return Order{
		ID:   id,
		Ts:   ts,
		Type: OrderEntryType,
		Payload: OrderPayload{
			CorrID:       corrID,
			LegIndex:     legIndex,
			TIF:          TIFIoc,
			Exchange:     leg.Exchange,
			InstrumentID: leg.InstrumentID,
			Side:         leg.Side,
			EstPx:        leg.EstPx,
			Size:         leg.Size,
			Mode:         mode,
		},
	}
}
