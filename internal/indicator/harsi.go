package indicator

import (
	"math"

	"signal_portal/internal/models"
)

// HARSIResult is the Heikin-Ashi transform applied to zero-centered RSI
// series instead of price. The relative position of Close vs Open defines
// the trend cloud state.
type HARSIResult struct {
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

// HeikinAshiRSI computes the HA-RSI trend cloud: each OHLC component is
// replaced by its RSI(length)-50, then the Heikin-Ashi recurrence runs on
// those synthetic values with the open smoothed over `smooth` bars.
func HeikinAshiRSI(candles []models.Candle, length, smooth int) HARSIResult {
	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	// The HA open recurrence reads the previous close RSI, so the raw open
	// series never enters the calculation.
	zHigh := zeroCentered(RSI(highs, length))
	zLow := zeroCentered(RSI(lows, length))
	zClose := zeroCentered(RSI(closes, length))

	res := HARSIResult{
		Open:  nanSlice(n),
		High:  nanSlice(n),
		Low:   nanSlice(n),
		Close: nanSlice(n),
	}

	prevOpen := math.NaN()
	for i := 0; i < n; i++ {
		if math.IsNaN(zClose[i]) {
			continue
		}

		// openRSI = previous close RSI when available
		openRSI := zClose[i]
		if i > 0 && !math.IsNaN(zClose[i-1]) {
			openRSI = zClose[i-1]
		}

		rMax := math.Max(zHigh[i], zLow[i])
		rMin := math.Min(zHigh[i], zLow[i])

		haClose := (openRSI + rMax + rMin + zClose[i]) / 4

		var haOpen float64
		if i == 0 || math.IsNaN(prevOpen) || math.IsNaN(res.Close[i-1]) {
			haOpen = (openRSI + zClose[i]) / 2
		} else {
			haOpen = (prevOpen*float64(smooth) + res.Close[i-1]) / float64(smooth+1)
		}
		prevOpen = haOpen

		res.Close[i] = haClose
		res.Open[i] = haOpen
		res.High[i] = math.Max(rMax, math.Max(haOpen, haClose))
		res.Low[i] = math.Min(rMin, math.Min(haOpen, haClose))
	}
	return res
}

// SmoothedHARSI is the lighter close-only variant: EMA-smoothed RSI folded
// with its own previous value, centered on the 50 line.
func SmoothedHARSI(closes []float64, length, smooth int) []float64 {
	smoothed := EMA(RSI(closes, length), smooth)
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 || math.IsNaN(smoothed[i]) {
			if math.IsNaN(smoothed[i]) {
				out[i] = 50
			} else {
				out[i] = smoothed[i]
			}
			continue
		}
		prev := out[i-1]
		if math.IsNaN(prev) {
			prev = 50
		}
		out[i] = (prev + smoothed[i]) / 2
	}
	return out
}

func zeroCentered(rsi []float64) []float64 {
	out := make([]float64, len(rsi))
	for i, v := range rsi {
		out[i] = v - 50
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
