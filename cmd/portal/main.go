package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"signal_portal/internal/modules/api"
	"signal_portal/internal/modules/bootstrap"
	"signal_portal/internal/modules/config"
	"signal_portal/internal/modules/dedup"
	"signal_portal/internal/modules/engine"
	"signal_portal/internal/modules/exchange"
	"signal_portal/internal/modules/health"
	"signal_portal/internal/modules/history"
	"signal_portal/internal/modules/hub"
	"signal_portal/internal/modules/postgres"
	"signal_portal/internal/modules/telegram"
	"signal_portal/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		exchange.Module(),
		dedup.Module(),
		hub.Module(),
		engine.Module(),
		telegram.Module(),
		history.Module(),
		bootstrap.Module(),
		api.Module(),
		health.Module(),
	)
	app.Run()
}
