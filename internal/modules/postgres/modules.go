package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"signal_portal/internal/modules/config"
	"signal_portal/pkg/db"
	"signal_portal/pkg/logger"
)

// Module provides the transaction manager. Without a DSN the binding is nil
// and the consumers that need durability fall back to in-memory behaviour.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (db.TxManager, error) {
				if cfg.DB == "" {
					logger.Warn("no database configured, running in-memory only")
					return nil, nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						poolMaster.Close()
						return nil
					},
				})

				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
