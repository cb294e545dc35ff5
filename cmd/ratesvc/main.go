package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundflow-go/internal/common"
	"fundflow-go/internal/config"
	"fundflow-go/internal/currency"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	rates, err := currency.LoadRates(cfg.Currency.RatesFile)
	if err != nil {
		zap.L().Fatal("Failed to load exchange rates", zap.Error(err))
	}
	zap.L().Info("Starting currency service",
		zap.String("rates_file", cfg.Currency.RatesFile),
		zap.Strings("currencies", rates.Currencies()))

	server := &http.Server{
		Addr:    cfg.Currency.ListenAddr,
		Handler: currency.NewHandler(rates).Routes(),
	}
	go func() {
		zap.L().Info("Currency service listening", zap.String("addr", cfg.Currency.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced HTTP shutdown", zap.Error(err))
	}
	zap.L().Info("Currency service stopped")
}
