package indicator

// MACDResult holds the three aligned MACD series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD is EMA(fast) - EMA(slow) with an EMA(signalPeriod) signal line and
// their difference as histogram.
func MACD(series []float64, fast, slow, signalPeriod int) MACDResult {
	emaFast := EMA(series, fast)
	emaSlow := EMA(series, slow)

	line := make([]float64, len(series))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signal := EMA(line, signalPeriod)

	hist := make([]float64, len(series))
	for i := range hist {
		hist[i] = line[i] - signal[i]
	}
	return MACDResult{Line: line, Signal: signal, Histogram: hist}
}
