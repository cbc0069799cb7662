package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pahana-billing/internal/config"
	"pahana-billing/internal/db"
	"pahana-billing/internal/httpserver"
	"pahana-billing/internal/logging"
	categoryrepo "pahana-billing/internal/repository/category"
	customerrepo "pahana-billing/internal/repository/customer"
	itemrepo "pahana-billing/internal/repository/item"
	salerepo "pahana-billing/internal/repository/sale"
	staffrepo "pahana-billing/internal/repository/staff"
	tokenrepo "pahana-billing/internal/repository/token"
	categorysvc "pahana-billing/internal/service/category"
	customersvc "pahana-billing/internal/service/customer"
	itemsvc "pahana-billing/internal/service/item"
	salesvc "pahana-billing/internal/service/sale"
	staffsvc "pahana-billing/internal/service/staff"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.AppEnv, "api")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	itemRepo := itemrepo.NewPostgres(dbpool, logger)
	saleRepo := salerepo.NewPostgres(dbpool, logger)

	staffService := staffsvc.New(staffrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), logger)
	go staffService.SweepExpired(ctx, 15*time.Minute)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		StaffSvc:    staffService,
		CustomerSvc: customersvc.New(customerRepo),
		CategorySvc: categorysvc.New(categoryRepo),
		ItemSvc:     itemsvc.New(itemRepo, categoryRepo),
		SaleSvc:     salesvc.New(saleRepo, customerRepo, itemRepo, logger),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
