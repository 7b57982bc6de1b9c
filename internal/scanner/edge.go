package scanner

import "arbitrage/internal/models"

// PathEdge is the computed economics of one directional BUY/SELL path
// between two venues for a single instrument.
type PathEdge struct {
	Buy, Sell models.Leg
	GrossBps  float64
	FeesBps   float64
	NetBps    float64
	Abs       float64
	Mid       float64
}

// TakerBps looks up the configured taker fee for venue, 0 if unconfigured.
type TakerBps map[string]float64

// computePathEdge implements the edge math from the data model:
// grossBps = (sellPx-buyPx)/mid*10000; feesBps = the buy venue's taker
// bps plus the sell venue's taker bps (0 for an unconfigured venue);
// netBps = gross - fees. The legs built here carry no feeBps of their own.
func computePathEdge(buyVenue, sellVenue string, buyPx, sellPx float64, taker TakerBps) PathEdge {
	mid := (buyPx + sellPx) / 2
	abs := sellPx - buyPx

	var grossBps float64
	if mid > 0 {
		grossBps = abs / mid * 10000
	}

	buyFeeBps := taker[buyVenue]
	sellFeeBps := taker[sellVenue]
	feesBps := buyFeeBps + sellFeeBps

	return PathEdge{
		Buy:      models.Leg{Exchange: buyVenue, Side: models.SideBuy, EstPx: buyPx},
		Sell:     models.Leg{Exchange: sellVenue, Side: models.SideSell, EstPx: sellPx},
		GrossBps: grossBps,
		FeesBps:  feesBps,
		NetBps:   grossBps - feesBps,
		Abs:      abs,
		Mid:      mid,
	}
}
