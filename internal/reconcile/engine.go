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

package reconcile

import (
	"context"
	"time"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"
	"fundflow-go/internal/telemetry"

	"go.uber.org/zap"
)

// Engine runs the periodic reconciliation sweep. One sweep fetches every
// unreconciled record, keeps the mature ones, and audits each user
// independently so one user's failure never blocks the rest.
type Engine struct {
	records   store.ReconciliationStore
	balances  store.BalanceClient
	telemetry *telemetry.Telemetry
	cfg       models.ReconcileConfig

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewEngine(records store.ReconciliationStore, balances store.BalanceClient, tel *telemetry.Telemetry, cfg models.ReconcileConfig) *Engine {
	return &Engine{
		records:   records,
		balances:  balances,
		telemetry: tel,
		cfg:       cfg,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep waits out the initial delay
// so the rest of the system has time to come up.
func (e *Engine) Start(ctx context.Context) {
	zap.L().Info("Starting reconciliation engine",
		zap.Duration("initial_delay", e.cfg.InitialDelay),
		zap.Duration("sweep_interval", e.cfg.SweepInterval),
		zap.Duration("maturity_window", e.cfg.MaturityWindow))
	go e.sweepLoop(ctx)
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (e *Engine) Stop() {
	close(e.stopChan)
	<-e.doneChan
	zap.L().Info("Reconciliation engine stopped")
}

func (e *Engine) sweepLoop(ctx context.Context) {
	defer close(e.doneChan)

	initial := time.NewTimer(e.cfg.InitialDelay)
	defer initial.Stop()
	select {
	case <-ctx.Done():
		return
	case <-e.stopChan:
		return
	case <-initial.C:
	}

	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	e.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass over all mature unreconciled records.
func (e *Engine) Sweep(ctx context.Context) {
	span := e.telemetry.StartSpan("reconciliation_sweep")
	defer span.End()

	records, err := e.records.FindUnreconciled(ctx)
	if err != nil {
		zap.L().Error("Failed to fetch unreconciled records", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	mature := FilterMature(records, e.cfg.MaturityWindow, time.Now().UTC())
	zap.L().Info("Reconciliation sweep started",
		zap.Int("unreconciled", len(records)),
		zap.Int("mature", len(mature)))
	if len(mature) == 0 {
		return
	}

	for userId, userRecords := range GroupByUser(mature) {
		if err := e.reconcileUser(ctx, userId, userRecords); err != nil {
			zap.L().Error("Failed to reconcile user, continuing with others",
				zap.String("user_id", userId),
				zap.Int("records", len(userRecords)),
				zap.Error(err))
			e.telemetry.Count("reconciliation_user_failures", 1)
		}
	}
}

func (e *Engine) reconcileUser(ctx context.Context, userId string, records []models.ReconciliationRecord) error {
	snapshot, err := e.balances.GetBalance(ctx, userId)
	if err != nil {
		return err
	}

	result := Reconcile(userId, snapshot.Balance, records, e.cfg.Tolerance)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.TransactionId
	}
	now := time.Now().UTC()

	if !result.HasDiscrepancy {
		if err := e.records.MarkBatch(ctx, ids, models.ReconciliationReconciled, now); err != nil {
			return err
		}
		zap.L().Info("User reconciled",
			zap.String("user_id", userId),
			zap.Int("transactions", len(ids)),
			zap.String("balance", result.CurrentBalance.String()))
		e.telemetry.Count("reconciliations_clean", 1)
		return nil
	}

	if err := e.records.MarkBatch(ctx, ids, models.ReconciliationDiscrepancy, now); err != nil {
		return err
	}
	zap.L().Warn("Balance discrepancy detected",
		zap.String("user_id", userId),
		zap.String("actual_balance", result.CurrentBalance.String()),
		zap.String("expected_balance", result.ExpectedBalance.String()),
		zap.String("difference", result.Difference.String()),
		zap.Int("transactions", len(ids)))
	e.telemetry.Count("reconciliation_discrepancies", 1)

	// A failed freeze is logged, not retried. The records are already marked
	// DISCREPANCY, so the condition stays visible either way.
	if err := e.balances.Freeze(ctx, userId); err != nil {
		zap.L().Error("Failed to freeze account after discrepancy",
			zap.String("user_id", userId), zap.Error(err))
		e.telemetry.Count("freeze_failures", 1)
		return nil
	}
	zap.L().Warn("Account frozen", zap.String("user_id", userId))
	e.telemetry.Count("accounts_frozen", 1)
	return nil
}
