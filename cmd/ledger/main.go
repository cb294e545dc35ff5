/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fundflow-go/internal/api"
	"fundflow-go/internal/balance"
	"fundflow-go/internal/common"
	"fundflow-go/internal/config"
	"fundflow-go/internal/currency"
	"fundflow-go/internal/database"
	"fundflow-go/internal/events"
	"fundflow-go/internal/ledger"
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

	zap.L().Info("Starting ledger service")

	db, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	bus, err := events.NewLog(ctx, cfg.Events)
	if err != nil {
		zap.L().Fatal("Failed to initialize event channel", zap.Error(err))
	}
	defer bus.Close()

	balances, err := balance.NewClient(cfg.Balance)
	if err != nil {
		zap.L().Fatal("Failed to initialize balance client", zap.Error(err))
	}

	converter, err := currency.NewClient(cfg.Currency)
	if err != nil {
		zap.L().Fatal("Failed to initialize currency client", zap.Error(err))
	}

	tel := telemetry.New("ledger")
	svc := ledger.NewService(ledger.Config{
		Transactions:       db,
		Bus:                bus,
		Balances:           balances,
		Converter:          converter,
		Telemetry:          tel,
		SettlementCurrency: cfg.Ledger.SettlementCurrency,
	})

	sub, err := bus.Subscribe(events.TopicFraudResult, cfg.Ledger.ConsumerGroup)
	if err != nil {
		zap.L().Fatal("Failed to subscribe to fraud results", zap.Error(err))
	}
	sub.Start(ctx, ledger.FraudResultHandler(svc, tel))

	server := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: api.NewServer(svc).Routes(),
	}
	go func() {
		zap.L().Info("Ledger API listening", zap.String("addr", cfg.HTTP.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced HTTP shutdown", zap.Error(err))
	}
	sub.Stop()
	zap.L().Info("Ledger service stopped")
}
