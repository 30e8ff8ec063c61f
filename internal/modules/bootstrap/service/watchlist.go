package service

import (
	"context"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	enginesvc "signal_portal/internal/modules/engine/service"
	exchangesvc "signal_portal/internal/modules/exchange/service"
	"signal_portal/pkg/logger"
)

// Watchlist rebuilds the engine matrix from live market data at startup:
// the configured symbol list is swapped for the top N USDT pairs by 24h
// quote volume.
type Watchlist struct {
	cfg    *config.Config
	client *exchangesvc.Client
	engine *enginesvc.Engine
}

func NewWatchlist(cfg *config.Config, client *exchangesvc.Client, eng *enginesvc.Engine) *Watchlist {
	return &Watchlist{cfg: cfg, client: client, engine: eng}
}

// Refresh queries the exchange and replaces the matrix symbols. The static
// configuration stays in place when discovery fails.
func (w *Watchlist) Refresh(ctx context.Context) error {
	symbols, err := w.client.TopUSDTVolume(ctx, w.cfg.WatchTopN)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		logger.Warn("symbol discovery returned nothing, keeping configured list")
		return nil
	}

	kinds := make([]models.StrategyKind, 0, len(w.cfg.Strategies))
	for _, s := range w.cfg.Strategies {
		kinds = append(kinds, models.StrategyKind(s))
	}
	tfs := make([]models.Timeframe, 0, len(w.cfg.Timeframes))
	for _, tf := range w.cfg.Timeframes {
		tfs = append(tfs, models.Timeframe(tf))
	}

	w.engine.SetMatrix(models.BuildMatrix(kinds, symbols, tfs))
	logger.Info("watchlist refreshed: %d symbols by volume", len(symbols))
	return nil
}
