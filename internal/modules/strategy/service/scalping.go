package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// ScalpingEvaluator fires on the fast/slow EMA crossover confirmed by the
// RSI being on the matching side of its neutral level.
type ScalpingEvaluator struct {
	p models.ScalpingParams
}

func NewScalping(p models.ScalpingParams) *ScalpingEvaluator {
	return &ScalpingEvaluator{p: p}
}

func (e *ScalpingEvaluator) Kind() models.StrategyKind { return models.KindScalping }

func (e *ScalpingEvaluator) MinBars() int {
	min := e.p.EMASlow + 10
	if min < 60 {
		min = 60
	}
	return min
}

func (e *ScalpingEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	emaFast := indicator.EMA(closes, e.p.EMAFast)
	emaSlow := indicator.EMA(closes, e.p.EMASlow)
	rsi := indicator.RSI(closes, e.p.RSIPeriod)

	n := len(closes)
	rsiCurr := rsi[n-1]
	if math.IsNaN(rsiCurr) {
		return models.Signal{}, false
	}

	cross := indicator.StrictCrossAt(emaFast, emaSlow, n-1)
	lastClose := closes[n-1]

	var dir models.Direction
	switch {
	case cross == indicator.CrossUp && rsiCurr > e.p.RSINeutral:
		dir = models.DirLong
	case cross == indicator.CrossDown && rsiCurr < e.p.RSINeutral:
		dir = models.DirShort
	default:
		return models.Signal{}, false
	}

	msg := fmt.Sprintf("SCALPING %s: EMA%d crossed EMA%d, RSI=%.1f (neutral %.0f)",
		dir, e.p.EMAFast, e.p.EMASlow, rsiCurr, e.p.RSINeutral)

	snap := models.Snapshot{
		RSI:   models.Float(rsiCurr),
		EMA50: models.Float(emaSlow[n-1]),
		Raw: map[string]float64{
			"ema_fast": emaFast[n-1],
			"ema_slow": emaSlow[n-1],
		},
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
