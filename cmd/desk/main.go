package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pahana-billing/internal/apiclient"
	"pahana-billing/internal/catalogcache"
	"pahana-billing/internal/config"
	"pahana-billing/internal/desk"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/receipt"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.AppEnv, "desk")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	api := apiclient.New(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout, logger)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = catalogcache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	catalog := catalogcache.New(rdb, api, cfg.CatalogCacheTTL, logger)

	if err := os.MkdirAll(cfg.ReceiptDir, 0o755); err != nil {
		logger.Fatal("create receipt dir", zap.String("dir", cfg.ReceiptDir), zap.Error(err))
	}
	renderer := receipt.NewPDFRenderer(cfg.ReceiptDir, receipt.Shop{
		Name:    cfg.ShopName,
		Address: cfg.ShopAddress,
		Phone:   cfg.ShopPhone,
	}, logger)

	reg := desk.NewRegistry(api, catalog, renderer, desk.Options{
		TTL:           cfg.SessionTTL,
		LookupTimeout: cfg.APITimeout,
		Logger:        logger,
	})
	sweepDone := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Minute)
		close(sweepDone)
	}()

	srv := desk.NewServer(cfg.DeskAddr, logger, reg, cfg.CORSOrigins)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting desk server", zap.String("addr", cfg.DeskAddr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	stop()
	<-sweepDone
	reg.Wait()
	logger.Info("desk stopped")
}
