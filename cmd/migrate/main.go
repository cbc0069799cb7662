package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"pahana-billing/internal/config"
	"pahana-billing/internal/db"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.AppEnv, "migrate")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down {
		if err := migrate.Down(ctx, pool); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back")
		return
	}

	version, err := migrate.Apply(ctx, pool, logger)
	if err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	logger.Info("migrations applied", zap.Uint("version", version))
}
