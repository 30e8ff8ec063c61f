package service

import (
	"fmt"

	"signal_portal/internal/models"
)

// New builds the evaluator for one strategy kind from the current
// configuration snapshot.
func New(kind models.StrategyKind, cfg models.StrategyConfig) (Evaluator, error) {
	switch kind {
	case models.KindRSI:
		return NewRSI(cfg.RSI), nil
	case models.KindMACD:
		return NewMACD(cfg.MACD), nil
	case models.KindGCM:
		return NewGCM(cfg.GCM), nil
	case models.KindRSIEMA50:
		return NewRSIEMA50(cfg.RSIEMA50), nil
	case models.KindScalping:
		return NewScalping(cfg.Scalping), nil
	case models.KindSwing:
		return NewSwing(cfg.Swing), nil
	case models.KindDayTrade:
		return NewDayTrade(cfg.DayTrade), nil
	case models.KindCombo:
		return NewCombo(cfg.Combo), nil
	case models.KindJFN:
		return NewJFN(cfg.JFN), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", kind)
	}
}

// All builds evaluators for every kind; the set is rebuilt whenever the
// configuration is replaced.
func All(cfg models.StrategyConfig) map[models.StrategyKind]Evaluator {
	out := make(map[models.StrategyKind]Evaluator, len(models.AllStrategyKinds))
	for _, kind := range models.AllStrategyKinds {
		ev, err := New(kind, cfg)
		if err != nil {
			continue
		}
		out[kind] = ev
	}
	return out
}
