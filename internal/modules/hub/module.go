package hub

import (
	"go.uber.org/fx"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	"signal_portal/internal/modules/hub/service"
)

func Module() fx.Option {
	return fx.Module("hub",
		// Shared channel feeding the outbound notifier.
		fx.Provide(
			func(cfg *config.Config) chan models.Signal {
				return make(chan models.Signal, cfg.SubscriberBuffer)
			},
		),
		fx.Provide(
			func(cfg *config.Config, out chan models.Signal) *service.Hub {
				return service.NewHub(cfg.SubscriberBuffer, cfg.RecentCap, out)
			},
		),
	)
}
