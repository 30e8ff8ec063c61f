package service

import (
	"fmt"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// MACDEvaluator fires on the classic MACD-line / signal-line crossover: a
// sign change of (MACD - signal) between the two last closed bars.
type MACDEvaluator struct {
	p models.MACDParams
}

func NewMACD(p models.MACDParams) *MACDEvaluator {
	return &MACDEvaluator{p: p}
}

func (e *MACDEvaluator) Kind() models.StrategyKind { return models.KindMACD }

func (e *MACDEvaluator) MinBars() int {
	return e.p.SlowPeriod + e.p.SignalPeriod + 5
}

func (e *MACDEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	macd := indicator.MACD(closes, e.p.FastPeriod, e.p.SlowPeriod, e.p.SignalPeriod)

	n := len(closes)
	cross := indicator.CrossAt(macd.Line, macd.Signal, n-1)
	if cross == indicator.CrossNone {
		return models.Signal{}, false
	}

	macdCurr := macd.Line[n-1]
	sigCurr := macd.Signal[n-1]
	histCurr := macd.Histogram[n-1]
	lastClose := closes[n-1]

	var dir models.Direction
	var msg string
	if cross == indicator.CrossUp {
		dir = models.DirLong
		msg = fmt.Sprintf("MACD cross up: macd=%.6f signal(%d)=%.6f hist=%.6f",
			macdCurr, e.p.SignalPeriod, sigCurr, histCurr)
	} else {
		dir = models.DirShort
		msg = fmt.Sprintf("MACD cross down: macd=%.6f signal(%d)=%.6f hist=%.6f",
			macdCurr, e.p.SignalPeriod, sigCurr, histCurr)
	}

	snap := models.Snapshot{
		MACD:       models.Float(macdCurr),
		MACDSignal: models.Float(sigCurr),
		Raw:        map[string]float64{"histogram": histCurr},
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
