package executor

import "arbitrage/internal/models"

// reorderProtectiveFirst moves the first SELL leg (if any) to index 0,
// preserving the stable order of the remainder. The short leg, assumed to
// carry the higher inventory risk in a cross-venue arb, is tested first:
// if it does not fill, no resting long exposure is created.
func reorderProtectiveFirst(legs []models.Leg) []models.Leg {
	sellIdx := -1
	for i, l := range legs {
		if l.Side == models.SideSell {
			sellIdx = i
			break
		}
	}
	if sellIdx <= 0 {
		return legs
	}

	out := make([]models.Leg, 0, len(legs))
	out = append(out, legs[sellIdx])
	for i, l := range legs {
		if i == sellIdx {
			continue
		}
		out = append(out, l)
	}
	return out
}
