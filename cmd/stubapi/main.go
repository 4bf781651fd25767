package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-client/internal/config"
	"storefront-client/internal/stubapi"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := buildLogger(cfg.LogEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	st := stubapi.NewStore(cfg.TokenTTL)
	if err := stubapi.Seed(st); err != nil {
		logger.Fatal("seed store", zap.Error(err))
	}
	if cfg.StubCatalogPath != "" {
		f, err := os.Open(cfg.StubCatalogPath)
		if err != nil {
			logger.Fatal("open catalog", zap.String("path", cfg.StubCatalogPath), zap.Error(err))
		}
		loaded, err := stubapi.LoadCatalogCSV(f, st)
		_ = f.Close()
		if err != nil {
			logger.Fatal("load catalog", zap.Error(err))
		}
		logger.Info("catalog loaded", zap.Int("products", loaded))
	}

	srv := stubapi.NewServer(cfg.StubHTTPAddr, logger, st)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting stub api", zap.String("addr", cfg.StubHTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
