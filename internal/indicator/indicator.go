// Package indicator holds the pure numeric functions the strategies are
// built from. Every function returns a slice aligned with its input; warm-up
// positions are NaN. No I/O, no state: identical input yields identical
// output bit for bit.
package indicator

import "math"

// EMA is the exponential moving average with alpha = 2/(period+1), seeded at
// the first non-NaN value.
func EMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	alpha := 2.0 / float64(period+1)
	seeded := false
	prev := math.NaN()
	for i, v := range series {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if !seeded {
			seeded = true
			prev = v
		} else {
			prev = prev + alpha*(v-prev)
		}
		out[i] = prev
	}
	return out
}

// SMA is the simple moving average; NaN until a full window of valid values
// is available.
func SMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(series); i++ {
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(series[j]) {
				valid = false
				break
			}
			sum += series[j]
		}
		if valid {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSI computes the Wilder-smoothed relative strength index. The first
// period-1 values are warm-up and NaN. The seed average spans the first
// period bars (the first bar contributes zero gain and loss).
func RSI(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(series) < period {
		return out
	}

	var sumGain, sumLoss float64
	for i := 1; i < period; i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			sumGain += change
		} else {
			sumLoss -= change
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)
	out[period-1] = rsiValue(avgGain, avgLoss)

	for i := period; i < len(series); i++ {
		change := series[i] - series[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
