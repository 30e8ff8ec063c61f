package service

import (
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// GCMEvaluator fires when the Heikin-Ashi RSI trend cloud flips color: the
// HA close moving to the other side of the HA open between the two last
// closed bars.
type GCMEvaluator struct {
	p models.GCMParams
}

func NewGCM(p models.GCMParams) *GCMEvaluator {
	return &GCMEvaluator{p: p}
}

func (e *GCMEvaluator) Kind() models.StrategyKind { return models.KindGCM }

func (e *GCMEvaluator) MinBars() int {
	return e.p.Length + e.p.Smooth + 10
}

func (e *GCMEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	ha := indicator.HeikinAshiRSI(candles, e.p.Length, e.p.Smooth)

	n := len(candles)
	closeCurr, openCurr := ha.Close[n-1], ha.Open[n-1]
	closePrev, openPrev := ha.Close[n-2], ha.Open[n-2]
	if math.IsNaN(closeCurr) || math.IsNaN(openCurr) || math.IsNaN(closePrev) || math.IsNaN(openPrev) {
		return models.Signal{}, false
	}

	greenCurr := closeCurr > openCurr
	greenPrev := closePrev > openPrev

	var dir models.Direction
	var msg string
	switch {
	case greenCurr && !greenPrev:
		dir = models.DirLong
		msg = "GCM trend cloud bull start: HA-RSI flipped red to green"
	case !greenCurr && greenPrev:
		dir = models.DirShort
		msg = "GCM trend cloud bear start: HA-RSI flipped green to red"
	default:
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	lastClose := closes[n-1]
	ema50 := indicator.EMA(closes, 50)[n-1]
	rsi := indicator.RSI(closes, 14)[n-1]

	snap := models.Snapshot{
		Raw: map[string]float64{
			"ha_close": closeCurr,
			"ha_open":  openCurr,
			"ha_high":  ha.High[n-1],
			"ha_low":   ha.Low[n-1],
		},
	}
	if !math.IsNaN(rsi) {
		snap.RSI = models.Float(rsi)
	}
	if !math.IsNaN(ema50) {
		snap.EMA50 = models.Float(ema50)
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
