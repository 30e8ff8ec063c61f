package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	dedup "signal_portal/internal/modules/dedup/service"
	hub "signal_portal/internal/modules/hub/service"
	"signal_portal/pkg/logger"
)

// CandleSource supplies closed-bar candle history for one pair.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error)
}

// State is the engine lifecycle phase.
type State string

const (
	StateStopped  State = "STOPPED"
	StateStarting State = "STARTING"
	StateRunning  State = "RUNNING"
	StateStopping State = "STOPPING"
)

// Status is a point-in-time snapshot of the engine for the status endpoint.
type Status struct {
	State          State     `json:"state"`
	LastTick       time.Time `json:"last_tick"`
	LastError      string    `json:"last_error,omitempty"`
	TicksCompleted uint64    `json:"ticks_completed"`
	SignalsEmitted uint64    `json:"signals_emitted"`
	ActivePairs    int       `json:"active_pairs"`
}

// Engine drives the periodic scan: on every tick it snapshots the active
// matrix and strategy parameters, fetches each distinct pair once, runs the
// matching evaluators, and publishes everything the dedup store lets through.
type Engine struct {
	source CandleSource
	store  dedup.Store
	hub    *hub.Hub

	tick          time.Duration
	stopGrace     time.Duration
	candleLimit   int
	maxConcurrent int

	mu       sync.Mutex
	state    State
	strategy models.StrategyConfig
	matrix   models.ActiveMatrix
	cancel   context.CancelFunc
	done     chan struct{}
	lastTick time.Time
	lastErr  error
	ticks    uint64
	emitted  uint64
}

func NewEngine(cfg *config.Config, source CandleSource, store dedup.Store, h *hub.Hub) *Engine {
	return &Engine{
		source:        source,
		store:         store,
		hub:           h,
		tick:          cfg.TickInterval,
		stopGrace:     cfg.StopGrace,
		candleLimit:   cfg.CandleLimit,
		maxConcurrent: cfg.MaxConcurrent,
		state:         StateStopped,
		strategy:      cfg.Strategy,
		matrix:        cfg.Matrix(),
	}
}

// Start launches the tick loop. Calling it on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateRunning, StateStarting:
		e.mu.Unlock()
		return nil
	case StateStopping:
		e.mu.Unlock()
		return errors.New("engine is stopping")
	}
	e.state = StateStarting

	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateRunning
	done := e.done
	e.mu.Unlock()

	logger.Info("engine started, tick=%s", e.tick)
	go e.loop(loopCtx, done)
	return nil
}

// Stop cancels the loop and waits for the in-flight tick up to the stop
// grace period. Idempotent.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = StateStopping
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(e.stopGrace):
			logger.Warn("engine stop grace %s elapsed, abandoning tick", e.stopGrace)
		case <-ctx.Done():
		}
	}

	e.mu.Lock()
	e.state = StateStopped
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	logger.Info("engine stopped")
	return nil
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	e.runTick(ctx)

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

func (e *Engine) runTick(ctx context.Context) {
	emitted, err := e.RunCycle(ctx)

	e.mu.Lock()
	e.lastTick = time.Now().UTC()
	e.lastErr = err
	e.ticks++
	e.emitted += uint64(emitted)
	e.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tick finished with errors: %v", err)
	}
}

// Status reports the current lifecycle state and counters.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		State:          e.state,
		LastTick:       e.lastTick,
		TicksCompleted: e.ticks,
		SignalsEmitted: e.emitted,
		ActivePairs:    len(e.matrix.Pairs()),
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// StrategyConfig returns the active parameter set.
func (e *Engine) StrategyConfig() models.StrategyConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategy
}

// UpdateStrategyConfig validates and swaps the parameter set wholesale.
// Dedup marks of every kind whose parameters changed are reset, so the new
// parameters may re-emit for bars the old ones already claimed. An invalid
// payload leaves the previous configuration active.
func (e *Engine) UpdateStrategyConfig(ctx context.Context, next models.StrategyConfig) error {
	if err := next.Validate(); err != nil {
		return &models.ConfigError{Err: err}
	}

	e.mu.Lock()
	prev := e.strategy
	e.strategy = next
	e.mu.Unlock()

	for _, kind := range changedKinds(prev, next) {
		if err := e.store.ResetKind(ctx, kind); err != nil {
			logger.Error("reset dedup marks for %s: %v", kind, err)
		} else {
			logger.Info("strategy %s parameters changed, dedup marks reset", kind)
		}
	}
	return nil
}

// Matrix returns a copy of the active watch matrix.
func (e *Engine) Matrix() models.ActiveMatrix {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matrix.Clone()
}

// SetMatrix replaces the watch matrix. Takes effect on the next tick.
func (e *Engine) SetMatrix(m models.ActiveMatrix) {
	e.mu.Lock()
	e.matrix = m.Clone()
	e.mu.Unlock()
}

func changedKinds(prev, next models.StrategyConfig) []models.StrategyKind {
	var out []models.StrategyKind
	if prev.RSI != next.RSI {
		out = append(out, models.KindRSI)
	}
	if prev.MACD != next.MACD {
		out = append(out, models.KindMACD)
	}
	if prev.GCM != next.GCM {
		out = append(out, models.KindGCM)
	}
	if prev.RSIEMA50 != next.RSIEMA50 {
		out = append(out, models.KindRSIEMA50)
	}
	if prev.Scalping != next.Scalping {
		out = append(out, models.KindScalping)
	}
	if prev.Swing != next.Swing {
		out = append(out, models.KindSwing)
	}
	if prev.DayTrade != next.DayTrade {
		out = append(out, models.KindDayTrade)
	}
	if prev.Combo != next.Combo {
		out = append(out, models.KindCombo)
	}
	if prev.JFN != next.JFN {
		out = append(out, models.KindJFN)
	}
	return out
}
