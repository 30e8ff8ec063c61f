package api

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/modules/api/service"
)

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			service.NewServer,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, s *service.Server) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						s.Start()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						return s.Shutdown(ctx)
					},
				})
			},
		),
	)
}
