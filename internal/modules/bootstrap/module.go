package bootstrap

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/modules/bootstrap/service"
	"signal_portal/internal/modules/config"
	"signal_portal/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			service.NewWatchlist,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wl *service.Watchlist) {
			if cfg.WatchTopN <= 0 {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := wl.Refresh(context.Background()); err != nil {
							logger.Error("watchlist refresh: %v", err)
						}
					}()
					return nil
				},
			})
		}),
	)
}
