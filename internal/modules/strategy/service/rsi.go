package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// RSIEvaluator fires on the bar where the Wilder RSI crosses its own
// moving-average signal line, optionally gated by the price side of EMA50.
type RSIEvaluator struct {
	p models.RSIParams
}

func NewRSI(p models.RSIParams) *RSIEvaluator {
	return &RSIEvaluator{p: p}
}

func (e *RSIEvaluator) Kind() models.StrategyKind { return models.KindRSI }

func (e *RSIEvaluator) MinBars() int {
	return e.p.Period + e.p.SignalPeriod + 5
}

func (e *RSIEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	rsi := indicator.RSI(closes, e.p.Period)
	rsiSignal := indicator.SMA(rsi, e.p.SignalPeriod)
	ema50 := indicator.EMA(closes, 50)

	n := len(closes)
	rsiCurr := rsi[n-1]
	sigCurr := rsiSignal[n-1]
	lastClose := closes[n-1]
	lastEMA50 := ema50[n-1]

	cross := indicator.CrossAt(rsi, rsiSignal, n-1)
	if cross == indicator.CrossNone {
		return models.Signal{}, false
	}

	var dir models.Direction
	var msg string

	switch cross {
	case indicator.CrossUp:
		if e.p.UseEMAFilter && lastClose <= lastEMA50 {
			return models.Signal{}, false
		}
		dir = models.DirLong
		msg = fmt.Sprintf("RSI cross up: RSI(%d)=%.2f signal(%d)=%.2f",
			e.p.Period, rsiCurr, e.p.SignalPeriod, sigCurr)
	case indicator.CrossDown:
		if e.p.UseEMAFilter && lastClose >= lastEMA50 {
			return models.Signal{}, false
		}
		dir = models.DirShort
		msg = fmt.Sprintf("RSI cross down: RSI(%d)=%.2f signal(%d)=%.2f",
			e.p.Period, rsiCurr, e.p.SignalPeriod, sigCurr)
	}

	snap := models.Snapshot{
		RSI: models.Float(rsiCurr),
		Raw: map[string]float64{
			"rsi_signal": sigCurr,
			"overbought": e.p.Overbought,
			"oversold":   e.p.Oversold,
		},
	}
	if !math.IsNaN(lastEMA50) {
		snap.EMA50 = models.Float(lastEMA50)
	}

	return newSignal(symbol, tf, e.Kind(), dir, lastClose, msg, snap, candles), true
}
