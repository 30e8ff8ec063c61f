package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signal_portal/internal/models"
	"signal_portal/pkg/logger"
)

func init() {
	logger.InitNop()
}

func TestFormatSignalBasics(t *testing.T) {
	sig := models.Signal{
		Symbol:    "BTCUSDT",
		Timeframe: models.TF15m,
		Strategy:  models.KindRSI,
		Direction: models.DirLong,
		Price:     64250.1234,
		Snapshot: models.Snapshot{
			RSI: models.Float(17.42),
		},
		TriggerBarTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	msg := FormatSignal(sig)
	assert.Contains(t, msg, "*RSI*")
	assert.Contains(t, msg, "BTCUSDT")
	assert.Contains(t, msg, "LONG")
	assert.Contains(t, msg, "⬆️")
	assert.Contains(t, msg, "15m")
	assert.Contains(t, msg, "64250.1234")
	assert.Contains(t, msg, "RSI: 17.42")
}

func TestFormatSignalDisplayNames(t *testing.T) {
	sig := models.Signal{Symbol: "ETHUSDT", Timeframe: models.TF1h,
		Strategy: models.KindSwing, Direction: models.DirShort, Price: 3500}
	msg := FormatSignal(sig)
	assert.Contains(t, msg, "*SWING TRADE*")
	assert.Contains(t, msg, "⬇️")
	assert.NotContains(t, msg, "SWING_TRADE")
}

func TestFormatSignalPricePrecision(t *testing.T) {
	mk := func(price float64) string {
		return FormatSignal(models.Signal{Symbol: "X", Timeframe: models.TF1h,
			Strategy: models.KindMACD, Direction: models.DirLong, Price: price})
	}
	assert.Contains(t, mk(64250.5), "64250.5000")
	assert.Contains(t, mk(0.5), "0.500000")
	assert.Contains(t, mk(0.00001234), "0.00001234")
}

func TestFormatSignalJFNHitRate(t *testing.T) {
	sig := models.Signal{Symbol: "SOLUSDT", Timeframe: models.TF5m,
		Strategy: models.KindJFN, Direction: models.DirLong, Price: 150,
		Snapshot: models.Snapshot{Raw: map[string]float64{"hit_rate": 62.5}}}
	msg := FormatSignal(sig)
	assert.Contains(t, msg, "62.50%")
}

func TestDisabledNotifierIsSafe(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Enabled())
	n.Send("nothing happens")

	n = &Notifier{}
	assert.False(t, n.Enabled())
	n.SendSignal(models.Signal{Symbol: "BTCUSDT"})
}
