package exchange

import (
	"go.uber.org/fx"

	apisvc "signal_portal/internal/modules/api/service"
	"signal_portal/internal/modules/config"
	enginesvc "signal_portal/internal/modules/engine/service"
	"signal_portal/internal/modules/exchange/service"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg)
			},
		),
		// adapter: *service.Client -> enginesvc.CandleSource
		fx.Provide(
			func(c *service.Client) enginesvc.CandleSource {
				return c
			},
		),
		// adapter: *service.Client -> apisvc.MarketSource
		fx.Provide(
			func(c *service.Client) apisvc.MarketSource {
				return c
			},
		),
	)
}
