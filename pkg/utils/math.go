package utils

import "math"

// RoundToLotSize truncates value down to the nearest multiple of lotSize.
// A non-positive lotSize is a no-op (some venues report no lot step).
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize) * lotSize
}

// RoundToLotSizeUp rounds value up to the nearest multiple of lotSize.
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Ceil(value/lotSize) * lotSize
}

// RoundToLotSizeNearest rounds value to the nearest multiple of lotSize.
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Round(value/lotSize) * lotSize
}

// CalculateSpread returns the percentage spread of priceHigh over
// priceLow: (priceHigh-priceLow)/priceLow*100. Returns 0 for a
// non-positive priceLow.
func CalculateSpread(priceHigh, priceLow float64) float64 {
	if priceLow <= 0 {
		return 0
	}
	return (priceHigh - priceLow) / priceLow * 100
}

// CalculateSpreadFromPrices returns the spread between two prices
// regardless of which is higher.
func CalculateSpreadFromPrices(priceA, priceB float64) float64 {
	if priceA <= 0 || priceB <= 0 {
		return 0
	}
	high, low := priceA, priceB
	if low > high {
		high, low = low, high
	}
	return CalculateSpread(high, low)
}

// CalculateNetSpread subtracts both legs' round-trip taker fees (each
// fraction counted twice, for entry and exit, and converted to percent)
// from a gross percentage spread.
func CalculateNetSpread(spreadPct, feeA, feeB float64) float64 {
	return spreadPct - 2*(feeA+feeB)*100
}

// CalculateNetSpreadDirect combines CalculateSpread and
// CalculateNetSpread in one call.
func CalculateNetSpreadDirect(priceHigh, priceLow, feeA, feeB float64) float64 {
	return CalculateNetSpread(CalculateSpread(priceHigh, priceLow), feeA, feeB)
}

// CalculateWeightedAverage returns the volume-weighted average of values.
// Negative weights are ignored; mismatched lengths or an all-zero weight
// sum return 0.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}

	var sum, totalWeight float64
	for i, v := range values {
		w := weights[i]
		if w <= 0 {
			continue
		}
		sum += v * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// OrderBookLevel is one price/volume level of a simulated order book.
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// SimulateMarketBuy walks asks from the top, filling targetVolume across
// levels, and returns the volume-weighted fill price, the filled volume
// (capped at available liquidity), and the slippage percentage versus
// the top-of-book price.
func SimulateMarketBuy(asks []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketFill(asks, targetVolume)
}

// SimulateMarketSell walks bids from the top; the return shape matches
// SimulateMarketBuy, with slippage negative when the fill price is below
// top-of-book.
func SimulateMarketSell(bids []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketFill(bids, targetVolume)
}

func simulateMarketFill(levels []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	if len(levels) == 0 || targetVolume <= 0 {
		return 0, 0, 0
	}

	topPrice := levels[0].Price
	var notional, remaining float64
	remaining = targetVolume

	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		take := lvl.Volume
		if take > remaining {
			take = remaining
		}
		notional += lvl.Price * take
		filled += take
		remaining -= take
	}

	if filled == 0 {
		return 0, 0, 0
	}
	avgPrice = notional / filled
	slippagePct = (avgPrice - topPrice) / topPrice * 100
	return avgPrice, filled, slippagePct
}

// CalculatePNL returns the PnL of a long or short position. Unknown
// sides and non-positive quantity yield 0.
func CalculatePNL(side string, entryPrice, currentPrice, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	switch side {
	case "long":
		return (currentPrice - entryPrice) * quantity
	case "short":
		return (entryPrice - currentPrice) * quantity
	default:
		return 0
	}
}

// CalculateTotalPNL sums the PnL of a long and a short leg of the same
// quantity.
func CalculateTotalPNL(longEntry, longExit, shortEntry, shortExit, quantity float64) float64 {
	return CalculatePNL("long", longEntry, longExit, quantity) +
		CalculatePNL("short", shortEntry, shortExit, quantity)
}

// SplitVolume divides totalVolume into nParts equal, lot-rounded chunks.
// Returns nil for non-positive totalVolume or nParts.
func SplitVolume(totalVolume float64, nParts int, lotSize float64) []float64 {
	if totalVolume <= 0 || nParts <= 0 {
		return nil
	}

	part := RoundToLotSizeNearest(totalVolume/float64(nParts), lotSize)
	parts := make([]float64, nParts)
	for i := range parts {
		parts[i] = part
	}
	return parts
}

// IsSpreadSufficient reports whether spreadPct clears threshold
// (inclusive).
func IsSpreadSufficient(spreadPct, threshold float64) bool {
	return spreadPct >= threshold
}

// ShouldExit reports whether spreadPct has collapsed to or below
// exitThreshold.
func ShouldExit(spreadPct, exitThreshold float64) bool {
	return spreadPct <= exitThreshold
}

// IsStopLossHit reports whether pnl has breached -stopLoss. A
// non-positive stopLoss means the stop is disabled.
func IsStopLossHit(pnl, stopLoss float64) bool {
	if stopLoss <= 0 {
		return false
	}
	return pnl <= -stopLoss
}

// Clamp restricts value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
