package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"pahana-billing/internal/config"
	"pahana-billing/internal/db"
	"pahana-billing/internal/importer"
	"pahana-billing/internal/logging"
	categoryrepo "pahana-billing/internal/repository/category"
	itemrepo "pahana-billing/internal/repository/item"
	categorysvc "pahana-billing/internal/service/category"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to item CSV (itemName,description,brand,category,price,stock)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.AppEnv, "importer")
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	categories := categorysvc.New(categoryrepo.NewPostgres(pool))
	imp := importer.NewCSVImporter(f, itemrepo.NewPostgres(pool, logger), categories, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}
	logger.Info("imported items", zap.Int("count", count), zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
}
