package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// ComboEvaluator confirms a crossover of one component (RSI or MACD) by a
// crossover of the other on the current bar, within the confirmation window.
// Directions must agree unless AllowMixedDir is set.
type ComboEvaluator struct {
	p models.ComboParams
}

func NewCombo(p models.ComboParams) *ComboEvaluator {
	return &ComboEvaluator{p: p}
}

func (e *ComboEvaluator) Kind() models.StrategyKind { return models.KindCombo }

func (e *ComboEvaluator) MinBars() int {
	min := e.p.MACDSlow
	if e.p.RSIPeriod > min {
		min = e.p.RSIPeriod
	}
	return min + e.p.MACDSignal + 20
}

func (e *ComboEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	n := len(closes)
	lastClose := closes[n-1]

	rsi := indicator.RSI(closes, e.p.RSIPeriod)
	rsiSig := indicator.SMA(rsi, e.p.RSISignal)
	macd := indicator.MACD(closes, e.p.MACDFast, e.p.MACDSlow, e.p.MACDSignal)
	ema50 := indicator.EMA(closes, 50)[n-1]

	rsiNow := indicator.CrossAt(rsi, rsiSig, n-1)
	macdNow := indicator.CrossAt(macd.Line, macd.Signal, n-1)
	_, rsiRecent := indicator.RecentCross(rsi, rsiSig, e.p.ConfirmWindow)
	_, macdRecent := indicator.RecentCross(macd.Line, macd.Signal, e.p.ConfirmWindow)

	var dir models.Direction
	var comboType string

	switch {
	// MACD crossed earlier in the window, RSI confirms now
	case macdRecent != indicator.CrossNone && rsiNow != indicator.CrossNone:
		if !e.p.AllowMixedDir && macdRecent != rsiNow {
			return models.Signal{}, false
		}
		if !e.emaOK(rsiNow, lastClose, ema50) {
			return models.Signal{}, false
		}
		dir = crossDirection(rsiNow)
		comboType = "macd_past_rsi_now"

	// RSI crossed earlier, MACD confirms now
	case rsiRecent != indicator.CrossNone && macdNow != indicator.CrossNone:
		if !e.p.AllowMixedDir && rsiRecent != macdNow {
			return models.Signal{}, false
		}
		if !e.emaOK(macdNow, lastClose, ema50) {
			return models.Signal{}, false
		}
		dir = crossDirection(macdNow)
		comboType = "rsi_past_macd_now"

	default:
		return models.Signal{}, false
	}

	msg := fmt.Sprintf("COMBO confirmed (%s): RSI + MACD confluence, action %s", comboType, dir)

	snap := models.Snapshot{
		Raw: map[string]float64{"confirm_window": float64(e.p.ConfirmWindow)},
	}
	if v := rsi[n-1]; !math.IsNaN(v) {
		snap.RSI = models.Float(v)
	}
	if v := macd.Line[n-1]; !math.IsNaN(v) {
		snap.MACD = models.Float(v)
	}
	if v := macd.Signal[n-1]; !math.IsNaN(v) {
		snap.MACDSignal = models.Float(v)
	}
	if !math.IsNaN(ema50) {
		snap.EMA50 = models.Float(ema50)
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}

func (e *ComboEvaluator) emaOK(dir int, lastClose, ema50 float64) bool {
	if !e.p.RequireEMA50 {
		return true
	}
	if math.IsNaN(ema50) {
		return false
	}
	if dir == indicator.CrossUp {
		return lastClose > ema50
	}
	return lastClose < ema50
}

func crossDirection(d int) models.Direction {
	if d == indicator.CrossUp {
		return models.DirLong
	}
	return models.DirShort
}
