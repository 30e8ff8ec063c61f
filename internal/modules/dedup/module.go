package dedup

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/modules/config"
	"signal_portal/internal/modules/dedup/service"
	"signal_portal/pkg/db"
)

// Module wires the emission guard. With a database configured the durable
// store backs the in-memory one, so restarts do not replay old bars.
func Module() fx.Option {
	return fx.Module("dedup",
		fx.Provide(
			func(cfg *config.Config, txm db.TxManager) (service.Store, error) {
				if cfg.DB == "" {
					return service.NewMemory(), nil
				}
				return service.NewPG(txm), nil
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config, store service.Store) {
				pg, ok := store.(*service.PG)
				if !ok {
					return
				}
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return pg.Migrate(ctx)
					},
				})
			},
		),
	)
}
