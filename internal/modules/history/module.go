package history

import (
	"context"

	"go.uber.org/fx"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	"signal_portal/internal/modules/history/service"
	hubsvc "signal_portal/internal/modules/hub/service"
	"signal_portal/pkg/db"
	"signal_portal/pkg/logger"
)

// Module persists emitted signals by tailing the hub with an unfiltered
// subscription. Without a database the provided *History is nil and every
// call on it is a no-op.
func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			func(cfg *config.Config, txm db.TxManager) *service.History {
				if cfg.DB == "" {
					return nil
				}
				return service.NewHistory(txm)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, h *service.History, hb *hubsvc.Hub) {
				if h == nil {
					return
				}
				runCtx, cancel := context.WithCancel(context.Background())
				sub := hb.Subscribe(models.Filter{})
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						if err := h.Migrate(ctx); err != nil {
							return err
						}
						go func() {
							for {
								select {
								case <-runCtx.Done():
									return
								case sig, ok := <-sub.C():
									if !ok {
										return
									}
									if err := h.Insert(runCtx, sig); err != nil {
										logger.Error("persist signal: %v", err)
									}
								}
							}
						}()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						cancel()
						hb.Unsubscribe(sub.ID)
						return nil
					},
				})
			},
		),
	)
}
