package engine

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/modules/config"
	dedupsvc "signal_portal/internal/modules/dedup/service"
	"signal_portal/internal/modules/engine/service"
	hubsvc "signal_portal/internal/modules/hub/service"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(cfg *config.Config, src service.CandleSource, store dedupsvc.Store, h *hubsvc.Hub) *service.Engine {
				return service.NewEngine(cfg, src, store, h)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, e *service.Engine) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return e.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return e.Stop(ctx)
					},
				})
			},
		),
	)
}
