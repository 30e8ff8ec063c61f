package service

import (
	"fmt"
	"math"

	"signal_portal/internal/indicator"
	"signal_portal/internal/models"
)

// JFNEvaluator fires on the fast/slow EMA crossover and annotates the
// candidate with a hit-rate figure from replaying past crossovers against a
// simulated TP/SL bracket over the series. A hit rate below AssertMin
// suppresses the candidate.
type JFNEvaluator struct {
	p models.JFNParams
}

func NewJFN(p models.JFNParams) *JFNEvaluator {
	return &JFNEvaluator{p: p}
}

func (e *JFNEvaluator) Kind() models.StrategyKind { return models.KindJFN }

func (e *JFNEvaluator) MinBars() int {
	min := e.p.SlowLength + 5
	if alt := e.p.MaxHoldBars + 2; alt > min {
		min = alt
	}
	return min
}

func (e *JFNEvaluator) Evaluate(symbol string, tf models.Timeframe, candles []models.Candle) (models.Signal, bool) {
	if len(candles) < e.MinBars() {
		return models.Signal{}, false
	}

	closes := models.Closes(candles)
	fast := indicator.EMA(closes, e.p.FastLength)
	slow := indicator.EMA(closes, e.p.SlowLength)

	n := len(closes)
	if math.IsNaN(fast[n-1]) || math.IsNaN(slow[n-1]) {
		return models.Signal{}, false
	}

	cross := indicator.StrictCrossAt(fast, slow, n-1)
	if cross == indicator.CrossNone {
		return models.Signal{}, false
	}

	hitRate, trades := e.hitRate(candles, fast, slow)
	if trades > 0 && hitRate < e.p.AssertMin {
		return models.Signal{}, false
	}

	dir := crossDirection(cross)
	msg := fmt.Sprintf("JFN %s: EMA%d/EMA%d crossover", dir, e.p.FastLength, e.p.SlowLength)
	if trades > 0 {
		msg = fmt.Sprintf("%s, hit rate %.1f%% over %d trades", msg, hitRate, trades)
	}

	snap := models.Snapshot{
		Raw: map[string]float64{
			"ema_fast": fast[n-1],
			"ema_slow": slow[n-1],
			"hit_rate": hitRate,
			"trades":   float64(trades),
		},
	}

	return newSignal(symbol, tf, e.Kind(), dir, closes[n-1], msg, snap, candles), true
}

// hitRate replays every historical crossover as a bracket trade: TP at
// TakePct, SL at StopPct, timeout after MaxHoldBars counts as a loss. Only
// the most recent TradesWindow outcomes enter the rate.
func (e *JFNEvaluator) hitRate(candles []models.Candle, fast, slow []float64) (float64, int) {
	var results []bool

	inTrade := false
	long := false
	entry := 0.0
	held := 0

	for i := 1; i < len(candles); i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}

		cross := indicator.StrictCrossAt(fast, slow, i)

		if !inTrade && cross != indicator.CrossNone {
			inTrade = true
			long = cross == indicator.CrossUp
			entry = candles[i].Close
			held = 0
			continue
		}

		if !inTrade {
			continue
		}

		held++
		outcome := e.resolveExit(long, entry, candles[i].High, candles[i].Low)
		if outcome == 0 && held < e.p.MaxHoldBars {
			continue
		}
		// timeout counts as a loss
		results = append(results, outcome == 1)
		inTrade = false
	}

	if len(results) == 0 {
		return 0, 0
	}
	window := results
	if e.p.TradesWindow > 0 && len(results) > e.p.TradesWindow {
		window = results[len(results)-e.p.TradesWindow:]
	}
	wins := 0
	for _, w := range window {
		if w {
			wins++
		}
	}
	return 100 * float64(wins) / float64(len(window)), len(window)
}

// resolveExit returns 1 on take-profit, -1 on stop, 0 when the bracket is
// still open. A bar touching both sides counts as a stop.
func (e *JFNEvaluator) resolveExit(long bool, entry, high, low float64) int {
	var tp, sl float64
	if long {
		tp = entry * (1 + e.p.TakePct/100)
		sl = entry * (1 - e.p.StopPct/100)
		if low <= sl {
			return -1
		}
		if high >= tp {
			return 1
		}
		return 0
	}
	tp = entry * (1 - e.p.TakePct/100)
	sl = entry * (1 + e.p.StopPct/100)
	if high >= sl {
		return -1
	}
	if low <= tp {
		return 1
	}
	return 0
}
