package executor

import "arbitrage/internal/models"

// realizedPnl implements the executor's PnL formula: gross is the signed
// sum of fill notionals (SELL positive, BUY negative); fees are charged
// against qty*mid, where mid comes from the Opportunity's estimated
// prices, not the fills.
func realizedPnl(opp models.Opportunity, fills []*models.FillPayload) float64 {
	var gross, qty float64
	for _, f := range fills {
		if f == nil {
			continue
		}
		sgn := -1.0
		if f.Side == models.SideSell {
			sgn = 1.0
		}
		gross += sgn * f.Px * f.FilledSize
		qty += f.FilledSize
	}

	buy, sell, ok := opp.BuySellLegs()
	if !ok || qty == 0 {
		return gross
	}
	mid := (buy.EstPx + sell.EstPx) / 2
	if mid == 0 {
		return gross
	}

	var feesAbs float64
	if c := opp.Payload.Costs; c != nil {
		feesAbs = c.Fees + c.Slippage + c.Borrow
	}
	totalFees := feesAbs * (qty * mid)
	return gross - totalFees
}
