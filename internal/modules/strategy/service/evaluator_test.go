package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_portal/internal/models"
)

var seriesStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func candlesFrom(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Open:     c,
			High:     c * 1.001,
			Low:      c * 0.999,
			Close:    c,
			Volume:   1000,
			OpenTime: seriesStart.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

// vShape is a monotone decline followed by a monotone rise.
func vShape(down, up int, downStep, upStep float64) []float64 {
	out := make([]float64, 0, down+up)
	price := 200.0
	for i := 0; i < down; i++ {
		price -= downStep
		out = append(out, price)
	}
	for i := 0; i < up; i++ {
		price += upStep
		out = append(out, price)
	}
	return out
}

// walkSeries is a deterministic pseudo-random price path.
func walkSeries(n int) []float64 {
	out := make([]float64, n)
	price := 100.0
	seed := uint64(0xDEADBEEFCAFE1234)
	for i := range out {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		price += float64(int64(seed%2001)-1000) / 500.0
		if price < 1 {
			price = 1
		}
		out[i] = price
	}
	return out
}

func TestAllEvaluatorsAbstainOnShortSeries(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	candles := candlesFrom(walkSeries(10))
	for kind, ev := range All(cfg) {
		_, fired := ev.Evaluate("BTCUSDT", models.TF1h, candles)
		assert.False(t, fired, "kind %s must abstain on %d bars", kind, len(candles))
	}
}

func TestEvaluatorsAreDeterministic(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	candles := candlesFrom(walkSeries(300))
	for kind, ev := range All(cfg) {
		a, firedA := ev.Evaluate("BTCUSDT", models.TF1h, candles)
		b, firedB := ev.Evaluate("BTCUSDT", models.TF1h, candles)
		require.Equal(t, firedA, firedB, "kind %s", kind)
		if firedA {
			assert.Equal(t, a.Direction, b.Direction, "kind %s", kind)
			assert.Equal(t, a.Price, b.Price, "kind %s", kind)
			assert.Equal(t, a.TriggerBarTime, b.TriggerBarTime, "kind %s", kind)
		}
	}
}

func TestFactoryCoversEveryKind(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	for _, kind := range models.AllStrategyKinds {
		ev, err := New(kind, cfg)
		require.NoError(t, err)
		assert.Equal(t, kind, ev.Kind())
		assert.Greater(t, ev.MinBars(), 0)
	}

	_, err := New(models.StrategyKind("NOPE"), cfg)
	assert.Error(t, err)

	assert.Len(t, All(cfg), len(models.AllStrategyKinds))
}

func TestSignalCarriesTriggerBar(t *testing.T) {
	closes := vShape(100, 100, 1, 2)
	candles := candlesFrom(closes)
	ev := NewScalping(models.DefaultStrategyConfig().Scalping)

	for n := ev.MinBars(); n <= len(candles); n++ {
		sig, fired := ev.Evaluate("ETHUSDT", models.TF15m, candles[:n])
		if !fired {
			continue
		}
		assert.Equal(t, "ETHUSDT", sig.Symbol)
		assert.Equal(t, models.TF15m, sig.Timeframe)
		assert.Equal(t, candles[n-1].OpenTime, sig.TriggerBarTime)
		assert.Equal(t, candles[n-1].Close, sig.Price)
		assert.NotEmpty(t, sig.Message)
		return
	}
	t.Fatal("scalping never fired on a V-shaped series")
}
