package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"pahana-billing/internal/config"
	"pahana-billing/internal/db"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.AppEnv, "seed")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin1234"
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, password, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
