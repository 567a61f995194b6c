package main

import (
	"context"
	"time"

	"github.com/noah-isme/backend-keranjang/internal/app"
	"github.com/noah-isme/backend-keranjang/internal/config"
	"github.com/noah-isme/backend-keranjang/internal/migrate"
	"github.com/noah-isme/backend-keranjang/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", "info")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := app.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")
}
