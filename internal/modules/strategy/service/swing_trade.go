package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// SwingEvaluator watches the smoothed HA-RSI crossing its 50 midline with a
// long EMA trend filter, for slower position-style entries.
type SwingEvaluator struct {
	p models.SwingParams
}

func NewSwing(p models.SwingParams) *SwingEvaluator {
	return &SwingEvaluator{p: p}
}

func (e *SwingEvaluator) Kind() models.StrategyKind { return models.KindSwing }

func (e *SwingEvaluator) MinBars() int {
	min := e.p.EMAFilter + 20
	if min < 120 {
		min = 120
	}
	return min
}

func (e *SwingEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	haRSI := indicator.SmoothedHARSI(closes, e.p.Length, e.p.Smooth)
	emaFilter := indicator.EMA(closes, e.p.EMAFilter)

	n := len(closes)
	curr, prev := haRSI[n-1], haRSI[n-2]
	emaCurr := emaFilter[n-1]
	lastClose := closes[n-1]
	if math.IsNaN(curr) || math.IsNaN(prev) || math.IsNaN(emaCurr) {
		return models.Signal{}, false
	}

	crossUp := prev <= 50 && curr > 50
	crossDown := prev >= 50 && curr < 50

	var dir models.Direction
	switch {
	case crossUp && lastClose > emaCurr:
		dir = models.DirLong
	case crossDown && lastClose < emaCurr:
		dir = models.DirShort
	default:
		return models.Signal{}, false
	}

	msg := fmt.Sprintf("SWING_TRADE %s: HA-RSI crossed 50 (%.2f), price vs EMA%d confirmed",
		dir, curr, e.p.EMAFilter)

	snap := models.Snapshot{
		RSI:   models.Float(curr),
		EMA50: models.Float(emaCurr),
		Raw:   map[string]float64{"ha_rsi_prev": prev},
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
