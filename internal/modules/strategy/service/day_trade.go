package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// DayTradeEvaluator needs confluence: a MACD crossover and an RSI/signal
// crossover both inside the confirmation window and pointing the same way.
// When the window contains crossovers in both directions the bar is
// ambiguous and no candidate is produced.
type DayTradeEvaluator struct {
	p models.DayTradeParams
}

func NewDayTrade(p models.DayTradeParams) *DayTradeEvaluator {
	return &DayTradeEvaluator{p: p}
}

func (e *DayTradeEvaluator) Kind() models.StrategyKind { return models.KindDayTrade }

func (e *DayTradeEvaluator) MinBars() int {
	min := e.p.MACDSlow + e.p.MACDSignal + e.p.ConfirmWindow
	if min < 50 {
		min = 50
	}
	return min
}

func (e *DayTradeEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	macd := indicator.MACD(closes, e.p.MACDFast, e.p.MACDSlow, e.p.MACDSignal)
	rsi := indicator.RSI(closes, e.p.RSIPeriod)
	rsiMA := indicator.SMA(rsi, e.p.RSIMAPeriod)

	n := len(closes)
	if math.IsNaN(rsi[n-1]) || math.IsNaN(macd.Line[n-1]) {
		return models.Signal{}, false
	}

	w := e.p.ConfirmWindow
	macdUp := indicator.HasRecentStrictCross(macd.Line, macd.Signal, indicator.CrossUp, w)
	macdDown := indicator.HasRecentStrictCross(macd.Line, macd.Signal, indicator.CrossDown, w)
	rsiUp := indicator.HasRecentStrictCross(rsi, rsiMA, indicator.CrossUp, w)
	rsiDown := indicator.HasRecentStrictCross(rsi, rsiMA, indicator.CrossDown, w)

	longOK := macdUp && rsiUp
	shortOK := macdDown && rsiDown
	if longOK == shortOK {
		// neither confirmed, or contradictory confluence in one window
		return models.Signal{}, false
	}

	dir := models.DirLong
	if shortOK {
		dir = models.DirShort
	}

	msg := fmt.Sprintf("DAY_TRADE %s: MACD and RSI crossed the same way within %d bars", dir, w)

	snap := models.Snapshot{
		RSI:        models.Float(rsi[n-1]),
		MACD:       models.Float(macd.Line[n-1]),
		MACDSignal: models.Float(macd.Signal[n-1]),
	}

	return newSignal(symbol, tf, e.Kind(), dir, closes[n-1], msg, snap, candles), true
}
