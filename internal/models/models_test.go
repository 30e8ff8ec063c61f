package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("1h")
	require.NoError(t, err)
	assert.Equal(t, TF1h, tf)
	assert.Equal(t, time.Hour, tf.Duration())

	_, err = ParseTimeframe("7m")
	assert.Error(t, err)
}

func TestFilterMatchIsConjunctive(t *testing.T) {
	sig := Signal{Symbol: "BTCUSDT", Timeframe: TF1h, Strategy: KindRSI}

	assert.True(t, Filter{}.Match(sig), "empty filter matches everything")
	assert.True(t, Filter{Symbols: []string{"BTCUSDT"}}.Match(sig))
	assert.False(t, Filter{Symbols: []string{"ETHUSDT"}}.Match(sig))
	assert.True(t, Filter{
		Symbols:    []string{"BTCUSDT"},
		Timeframes: []Timeframe{TF1h},
		Strategies: []StrategyKind{KindRSI},
	}.Match(sig))
	assert.False(t, Filter{
		Symbols:    []string{"BTCUSDT"},
		Strategies: []StrategyKind{KindMACD},
	}.Match(sig), "every present dimension must match")
}

func TestBuildMatrixAndPairs(t *testing.T) {
	m := BuildMatrix(
		[]StrategyKind{KindRSI, KindMACD},
		[]string{"BTCUSDT", "ETHUSDT"},
		[]Timeframe{TF5m, TF1h},
	)
	require.Len(t, m, 2)
	assert.Len(t, m[KindRSI], 4)

	pairs := m.Pairs()
	assert.Len(t, pairs, 4, "pairs are deduplicated across kinds")

	kinds := m.StrategiesFor(Pair{Symbol: "BTCUSDT", Timeframe: TF5m})
	assert.ElementsMatch(t, []StrategyKind{KindRSI, KindMACD}, kinds)

	assert.Empty(t, m.StrategiesFor(Pair{Symbol: "XRPUSDT", Timeframe: TF5m}))
}

func TestMatrixCloneIsIndependent(t *testing.T) {
	m := BuildMatrix([]StrategyKind{KindRSI}, []string{"BTCUSDT"}, []Timeframe{TF1h})
	clone := m.Clone()

	clone[KindRSI][0].Symbol = "HACKED"
	assert.Equal(t, "BTCUSDT", m[KindRSI][0].Symbol)
}

func TestDedupKeyString(t *testing.T) {
	key := DedupKey{Symbol: "BTCUSDT", Timeframe: TF15m, Strategy: KindGCM}
	assert.Equal(t, "BTCUSDT|15m|GCM", key.String())
}

func TestStrategyConfigValidate(t *testing.T) {
	cfg := DefaultStrategyConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.RSI.Period = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MACD.FastPeriod = bad.MACD.SlowPeriod
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RSI.Oversold = 90
	assert.Error(t, bad.Validate())
}
