package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fundflow-go/internal/common"
	"fundflow-go/internal/config"
	"fundflow-go/internal/events"
	"fundflow-go/internal/fraud"
	"fundflow-go/internal/telemetry"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting fraud oracle",
		zap.Duration("min_delay", cfg.Fraud.MinDelay),
		zap.Duration("max_delay", cfg.Fraud.MaxDelay),
		zap.String("reject_over", cfg.Fraud.RejectOver.String()))

	bus, err := events.NewLog(ctx, cfg.Events)
	if err != nil {
		zap.L().Fatal("Failed to initialize event channel", zap.Error(err))
	}
	defer bus.Close()

	tel := telemetry.New("fraud-oracle")
	oracle := fraud.NewOracle(bus, tel, cfg.Fraud)

	sub, err := bus.Subscribe(events.TopicFraudCheckRequest, cfg.Fraud.ConsumerGroup)
	if err != nil {
		zap.L().Fatal("Failed to subscribe to fraud check requests", zap.Error(err))
	}
	sub.Start(ctx, oracle.Handler())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received")
	sub.Stop()
	zap.L().Info("Fraud oracle stopped")
}
