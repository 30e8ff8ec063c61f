package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	dedup "signal_portal/internal/modules/dedup/service"
	hubsvc "signal_portal/internal/modules/hub/service"
	strategy "signal_portal/internal/modules/strategy/service"
	"signal_portal/pkg/logger"
)

func init() {
	logger.InitNop()
}

type stubSource struct {
	mu      sync.Mutex
	data    map[string][]models.Candle
	err     map[string]error
	fetches map[string]int
}

func newStubSource() *stubSource {
	return &stubSource{
		data:    make(map[string][]models.Candle),
		err:     make(map[string]error),
		fetches: make(map[string]int),
	}
}

func (s *stubSource) GetCandles(_ context.Context, symbol string, _ models.Timeframe, _ int) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[symbol]++
	if err := s.err[symbol]; err != nil {
		return nil, err
	}
	return s.data[symbol], nil
}

func (s *stubSource) fetchCount(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[symbol]
}

// blockingSource parks every fetch until its context is canceled.
type blockingSource struct {
	started  chan struct{}
	inFlight atomic.Int32
}

func (b *blockingSource) GetCandles(ctx context.Context, _ string, _ models.Timeframe, _ int) ([]models.Candle, error) {
	b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	b.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct{ *dedup.Memory }

func (f *failingStore) Claim(context.Context, models.DedupKey, time.Time) (bool, error) {
	return false, assert.AnError
}

type spyStore struct {
	*dedup.Memory
	mu     sync.Mutex
	resets []models.StrategyKind
}

func (s *spyStore) ResetKind(ctx context.Context, kind models.StrategyKind) error {
	s.mu.Lock()
	s.resets = append(s.resets, kind)
	s.mu.Unlock()
	return s.Memory.ResetKind(ctx, kind)
}

func testConfig(symbols, strategies []string) *config.Config {
	cfg := &config.Config{
		TickInterval:  time.Hour,
		StopGrace:     2 * time.Second,
		MaxConcurrent: 4,
		CandleLimit:   200,
		Symbols:       symbols,
		Timeframes:    []string{"1h"},
		Strategies:    strategies,
		Strategy:      models.DefaultStrategyConfig(),
	}
	cfg.Strategy.RSI.UseEMAFilter = false
	return cfg
}

func candlesFrom(closes []float64) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Open: c, High: c * 1.001, Low: c * 0.999, Close: c,
			Volume: 1000, OpenTime: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

// firingCandles finds a candle series on which the unfiltered RSI evaluator
// emits a candidate on the last bar.
func firingCandles(t *testing.T) []models.Candle {
	t.Helper()
	ev := strategy.NewRSI(models.RSIParams{Period: 14, SignalPeriod: 9})

	closes := make([]float64, 0, 200)
	price := 200.0
	for i := 0; i < 100; i++ {
		price -= 1
		closes = append(closes, price)
	}
	for i := 0; i < 100; i++ {
		price += 2
		closes = append(closes, price)
	}
	candles := candlesFrom(closes)
	for n := ev.MinBars(); n <= len(candles); n++ {
		if _, fired := ev.Evaluate("BTCUSDT", models.TF1h, candles[:n]); fired {
			return candles[:n]
		}
	}
	t.Fatal("no RSI crossover on the test series")
	return nil
}

func TestEngineStartStopIdempotent(t *testing.T) {
	cfg := testConfig(nil, nil)
	eng := NewEngine(cfg, newStubSource(), dedup.NewMemory(), hubsvc.NewHub(8, 100, nil))
	ctx := context.Background()

	assert.Equal(t, StateStopped, eng.Status().State)

	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Start(ctx), "second start is a no-op")
	assert.Equal(t, StateRunning, eng.Status().State)

	require.Eventually(t, func() bool {
		return eng.Status().TicksCompleted >= 1
	}, 2*time.Second, 10*time.Millisecond, "initial tick must run")

	require.NoError(t, eng.Stop(ctx))
	require.NoError(t, eng.Stop(ctx), "second stop is a no-op")
	assert.Equal(t, StateStopped, eng.Status().State)

	// a stopped engine can start again
	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Stop(ctx))
}

func TestEngineEmitsEachBarOnce(t *testing.T) {
	cfg := testConfig([]string{"BTCUSDT"}, []string{"RSI"})
	src := newStubSource()
	src.data["BTCUSDT"] = firingCandles(t)
	h := hubsvc.NewHub(8, 100, nil)
	eng := NewEngine(cfg, src, dedup.NewMemory(), h)

	emitted, err := eng.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emitted)

	recent := h.Recent(models.Filter{}, 10)
	require.Len(t, recent, 1)
	assert.Equal(t, models.KindRSI, recent[0].Strategy)
	assert.False(t, recent[0].EmittedAt.IsZero())

	// the same bar does not emit twice
	emitted, err = eng.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, emitted)
	assert.Len(t, h.Recent(models.Filter{}, 10), 1)
}

func TestEngineFetchesEachPairOnce(t *testing.T) {
	// several strategies on one pair still cost a single fetch per cycle
	cfg := testConfig([]string{"BTCUSDT"}, []string{"RSI", "MACD", "SCALPING"})
	src := newStubSource()
	src.data["BTCUSDT"] = candlesFrom(make([]float64, 0))
	eng := NewEngine(cfg, src, dedup.NewMemory(), hubsvc.NewHub(8, 100, nil))

	_, err := eng.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.fetchCount("BTCUSDT"))
}

func TestRunCycleDrainsWorkersOnCancel(t *testing.T) {
	symbols := []string{"AAAUSDT", "BBBUSDT", "CCCUSDT", "DDDUSDT",
		"EEEUSDT", "FFFUSDT", "GGGUSDT", "HHHUSDT"}
	cfg := testConfig(symbols, []string{"RSI"})
	src := &blockingSource{started: make(chan struct{}, len(symbols))}
	eng := NewEngine(cfg, src, dedup.NewMemory(), hubsvc.NewHub(8, 100, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		emitted int
		err     error
	}
	done := make(chan result, 1)
	go func() {
		n, err := eng.RunCycle(ctx)
		done <- result{n, err}
	}()

	// saturate the worker pool, then cancel while pairs are still queued
	for i := 0; i < cfg.MaxConcurrent; i++ {
		<-src.started
	}
	cancel()

	select {
	case res := <-done:
		require.ErrorIs(t, res.err, context.Canceled)
		assert.Zero(t, res.emitted)
	case <-time.After(2 * time.Second):
		t.Fatal("RunCycle did not return after cancel")
	}
	assert.Zero(t, src.inFlight.Load(), "no fetch may outlive RunCycle")
}

func TestEngineIsolatesFailingPairs(t *testing.T) {
	cfg := testConfig([]string{"BTCUSDT", "ETHUSDT"}, []string{"RSI"})
	src := newStubSource()
	src.err["BTCUSDT"] = assert.AnError
	src.data["ETHUSDT"] = firingCandles(t)
	h := hubsvc.NewHub(8, 100, nil)
	eng := NewEngine(cfg, src, dedup.NewMemory(), h)

	emitted, err := eng.RunCycle(context.Background())
	assert.Error(t, err, "the failing pair surfaces in the cycle error")
	assert.Equal(t, 1, emitted, "the healthy pair still emits")
	assert.Equal(t, 1, src.fetchCount("ETHUSDT"))
}

func TestEngineFailsClosedOnDedupError(t *testing.T) {
	cfg := testConfig([]string{"BTCUSDT"}, []string{"RSI"})
	src := newStubSource()
	src.data["BTCUSDT"] = firingCandles(t)
	h := hubsvc.NewHub(8, 100, nil)
	eng := NewEngine(cfg, src, &failingStore{dedup.NewMemory()}, h)

	emitted, err := eng.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, emitted, "an unverifiable signal is never emitted")
	assert.Empty(t, h.Recent(models.Filter{}, 10))
}

func TestUpdateStrategyConfigResetsChangedKinds(t *testing.T) {
	cfg := testConfig([]string{"BTCUSDT"}, []string{"RSI"})
	store := &spyStore{Memory: dedup.NewMemory()}
	eng := NewEngine(cfg, newStubSource(), store, hubsvc.NewHub(8, 100, nil))

	next := eng.StrategyConfig()
	next.RSI.Period = 21
	require.NoError(t, eng.UpdateStrategyConfig(context.Background(), next))

	store.mu.Lock()
	resets := append([]models.StrategyKind(nil), store.resets...)
	store.mu.Unlock()
	assert.Equal(t, []models.StrategyKind{models.KindRSI}, resets)
	assert.Equal(t, 21, eng.StrategyConfig().RSI.Period)
}

func TestUpdateStrategyConfigRejectsInvalid(t *testing.T) {
	cfg := testConfig([]string{"BTCUSDT"}, []string{"RSI"})
	eng := NewEngine(cfg, newStubSource(), dedup.NewMemory(), hubsvc.NewHub(8, 100, nil))

	prev := eng.StrategyConfig()
	bad := prev
	bad.MACD.FastPeriod = 40 // fast must stay below slow

	err := eng.UpdateStrategyConfig(context.Background(), bad)
	require.Error(t, err)
	var cfgErr *models.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, prev, eng.StrategyConfig(), "previous config stays active")
}
