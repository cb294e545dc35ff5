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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fundflow-go/internal/balance"
	"fundflow-go/internal/common"
	"fundflow-go/internal/config"
	"fundflow-go/internal/database"
	"fundflow-go/internal/events"
	"fundflow-go/internal/reconcile"
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

	zap.L().Info("Starting reconciliation service")

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

	tel := telemetry.New("reconciler")

	requestSub, err := bus.Subscribe(events.TopicFraudCheckRequest, cfg.Reconcile.ConsumerGroup)
	if err != nil {
		zap.L().Fatal("Failed to subscribe to fraud check requests", zap.Error(err))
	}
	requestSub.Start(ctx, reconcile.RequestHandler(db, tel))

	resultSub, err := bus.Subscribe(events.TopicFraudResult, cfg.Reconcile.ConsumerGroup)
	if err != nil {
		zap.L().Fatal("Failed to subscribe to fraud results", zap.Error(err))
	}
	resultSub.Start(ctx, reconcile.ResultHandler(db, tel))

	engine := reconcile.NewEngine(db, balances, tel, cfg.Reconcile)
	engine.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, stop := range []func(){engine.Stop, requestSub.Stop, resultSub.Stop} {
			wg.Add(1)
			go func(stop func()) {
				defer wg.Done()
				stop()
			}(stop)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Reconciliation service stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
