package main

import (
	"context"
	"os/signal"
	"syscall"

	"WasteGuard-Backend/cmd/config"
	migration "WasteGuard-Backend/cmd/database/migrate"
	"WasteGuard-Backend/internal/utils"
	"WasteGuard-Backend/pkg/logger"
)

func main() {
	utils.LoadConfig()
	logger.Init("wasteguard-backend", utils.GetConfig("APP_ENV") != "production")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := migration.Migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("database migration failed")
	}

	app, err := config.NewApp(ctx, db)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("application setup failed")
	}

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			logger.Logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	port := utils.GetConfig("APP_PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		logger.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
