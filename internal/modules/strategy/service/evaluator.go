package service

import (
	"signal_portal/internal/models"
)

// Evaluator inspects a closed-bar candle series and produces at most one
// signal candidate, for the transition on the last two bars. Evaluators are
// pure: no I/O, no retained state between calls, and a series shorter than
// MinBars yields abstention, never an error.
type Evaluator interface {
	Kind() models.StrategyKind
	MinBars() int
	Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool)
}

func newSignal(
	symbol string,
	tf models.Timeframe,
	kind models.StrategyKind,
	dir models.Direction,
	price float64,
	msg string,
	snap models.Snapshot,
	candles []models.Candle,
) models.Signal {
	return models.Signal{
		Symbol:         symbol,
		Timeframe:      tf,
		Strategy:       kind,
		Direction:      dir,
		Price:          price,
		Message:        msg,
		Snapshot:       snap,
		TriggerBarTime: candles[len(candles)-1].OpenTime,
	}
}
