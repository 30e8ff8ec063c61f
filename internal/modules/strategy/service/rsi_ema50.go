package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// RSIEMA50Evaluator is the RSI crossover confirmed twice over: the price
// must sit on the matching side of EMA50 and the RSI must be leaving an
// extreme zone.
type RSIEMA50Evaluator struct {
	p models.RSIEMA50Params
}

func NewRSIEMA50(p models.RSIEMA50Params) *RSIEMA50Evaluator {
	return &RSIEMA50Evaluator{p: p}
}

func (e *RSIEMA50Evaluator) Kind() models.StrategyKind { return models.KindRSIEMA50 }

func (e *RSIEMA50Evaluator) MinBars() int {
	min := e.p.EMAPeriod + 10
	if alt := e.p.RSIPeriod + e.p.RSISignal + 5; alt > min {
		min = alt
	}
	return min
}

func (e *RSIEMA50Evaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	rsi := indicator.RSI(closes, e.p.RSIPeriod)
	rsiMA := indicator.SMA(rsi, e.p.RSISignal)
	ema := indicator.EMA(closes, e.p.EMAPeriod)

	n := len(closes)
	rsiCurr := rsi[n-1]
	emaCurr := ema[n-1]
	lastClose := closes[n-1]
	if math.IsNaN(rsiCurr) || math.IsNaN(rsiMA[n-1]) || math.IsNaN(emaCurr) {
		return models.Signal{}, false
	}

	cross := indicator.StrictCrossAt(rsi, rsiMA, n-1)
	if cross == indicator.CrossNone {
		return models.Signal{}, false
	}

	oversold := rsiCurr <= e.p.Oversold
	overbought := rsiCurr >= e.p.Overbought

	var dir models.Direction
	switch {
	case cross == indicator.CrossUp && lastClose > emaCurr && oversold:
		dir = models.DirLong
	case cross == indicator.CrossDown && lastClose < emaCurr && overbought:
		dir = models.DirShort
	default:
		return models.Signal{}, false
	}

	msg := fmt.Sprintf("RSI+EMA%d %s: RSI=%.2f (oversold %.0f / overbought %.0f), price vs EMA confirmed",
		e.p.EMAPeriod, dir, rsiCurr, e.p.Oversold, e.p.Overbought)

	snap := models.Snapshot{
		RSI:   models.Float(rsiCurr),
		EMA50: models.Float(emaCurr),
		Raw: map[string]float64{
			"rsi_signal": rsiMA[n-1],
			"overbought": e.p.Overbought,
			"oversold":   e.p.Oversold,
		},
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
