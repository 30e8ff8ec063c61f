package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_portal/internal/models"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.Equal(t, 8, cfg.MaxConcurrent)
	assert.Equal(t, 200, cfg.CandleLimit)
	assert.Equal(t, 64, cfg.SubscriberBuffer)
	assert.Equal(t, 100, cfg.RecentCap)
	assert.NotEmpty(t, cfg.Symbols)
	assert.Contains(t, cfg.Timeframes, "1h")
	assert.Equal(t, 14, cfg.Strategy.RSI.Period)
	assert.Equal(t, 6, cfg.Strategy.DayTrade.ConfirmWindow)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "30s")
	t.Setenv("SYMBOLS", "BTCUSDT, ETHUSDT")
	t.Setenv("TIMEFRAMES", "5m,1h")
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("DATABASE_DSN", "postgres://localhost/test")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, []string{"5m", "1h"}, cfg.Timeframes)
	assert.Equal(t, "test-token", cfg.Telegram.Token)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, "postgres://localhost/test", cfg.DB)
}

func TestNewConfigRejectsUnknownTimeframe(t *testing.T) {
	t.Setenv("TIMEFRAMES", "7m")
	_, err := NewConfig()
	require.Error(t, err)
	var cfgErr *models.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewConfigRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("STRATEGIES", "RSI,WRONG")
	_, err := NewConfig()
	assert.Error(t, err)
}

func TestMatrixExpandsTheGrid(t *testing.T) {
	t.Setenv("SYMBOLS", "BTCUSDT,ETHUSDT")
	t.Setenv("TIMEFRAMES", "5m,1h")
	t.Setenv("STRATEGIES", "RSI,MACD")

	cfg, err := NewConfig()
	require.NoError(t, err)

	m := cfg.Matrix()
	require.Len(t, m, 2)
	assert.Len(t, m[models.KindRSI], 4)
	assert.Len(t, m[models.KindMACD], 4)
	assert.Len(t, m.Pairs(), 4, "distinct pairs are shared between kinds")
}

func TestDurationFromEnvFallsBack(t *testing.T) {
	t.Setenv("STOP_GRACE", "not-a-duration")
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.StopGrace)
}
