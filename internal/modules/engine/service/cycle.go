package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"signal_portal/internal/models"
	strategy "signal_portal/internal/modules/strategy/service"
	"signal_portal/pkg/logger"
)

// RunCycle executes one full scan against a snapshot of the matrix and
// parameters taken at entry. A failing pair never blocks the others; the
// returned error aggregates per-pair failures. Safe to call directly for an
// on-demand analysis while the tick loop is running.
func (e *Engine) RunCycle(ctx context.Context) (int, error) {
	e.mu.Lock()
	cfg := e.strategy
	matrix := e.matrix.Clone()
	e.mu.Unlock()

	evaluators := strategy.All(cfg)
	pairs := matrix.Pairs()
	if len(pairs) == 0 {
		return 0, nil
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, e.maxConcurrent)
		resMu   sync.Mutex
		emitted int
		errs    []error
		ctxErr  error
	)

dispatch:
	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			// Stop handing out work but let in-flight pairs drain, so the
			// counters are settled when the caller gets them back.
			ctxErr = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(p models.Pair) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := e.scanPair(ctx, p, matrix.StrategiesFor(p), evaluators)
			resMu.Lock()
			emitted += n
			if err != nil {
				errs = append(errs, err)
			}
			resMu.Unlock()
		}(pair)
	}
	wg.Wait()

	if ctxErr != nil {
		return emitted, ctxErr
	}
	if len(errs) > 0 {
		return emitted, errors.Wrapf(errs[0], "%d of %d pairs failed", len(errs), len(pairs))
	}
	return emitted, nil
}

// scanPair fetches the pair once and runs every active evaluator over the
// same series.
func (e *Engine) scanPair(
	ctx context.Context,
	pair models.Pair,
	kinds []models.StrategyKind,
	evaluators map[models.StrategyKind]strategy.Evaluator,
) (int, error) {
	candles, err := e.source.GetCandles(ctx, pair.Symbol, pair.Timeframe, e.candleLimit)
	if err != nil {
		logger.Error("fetch %s: %v", pair, err)
		return 0, err
	}

	emitted := 0
	for _, kind := range kinds {
		ev, ok := evaluators[kind]
		if !ok {
			continue
		}
		if len(candles) < ev.MinBars() {
			continue
		}
		sig, fired := ev.Evaluate(pair.Symbol, pair.Timeframe, candles)
		if !fired {
			continue
		}

		key := models.DedupKey{Symbol: pair.Symbol, Timeframe: pair.Timeframe, Strategy: kind}
		claimed, err := e.store.Claim(ctx, key, sig.TriggerBarTime)
		if err != nil {
			// Fail closed: an unverifiable signal is never emitted.
			logger.Error("dedup claim %s: %v", key, err)
			return emitted, &models.DedupStoreError{Key: key, Err: err}
		}
		if !claimed {
			continue
		}

		sig.EmittedAt = time.Now().UTC()
		e.hub.Publish(sig)
		emitted++
		logger.Info("signal %s %s %s %s @ %.8g", sig.Strategy, sig.Direction, sig.Symbol, sig.Timeframe, sig.Price)
	}
	return emitted, nil
}
