package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/telegram/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewNotifier,
		),
		// Drain the hub's outbound channel for the whole app lifetime.
		fx.Invoke(
			func(lc fx.Lifecycle, n *service.Notifier, out chan models.Signal) {
				runCtx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						go n.Run(runCtx, out)
						return nil
					},
					OnStop: func(ctx context.Context) error {
						cancel()
						return nil
					},
				})
			},
		),
	)
}
