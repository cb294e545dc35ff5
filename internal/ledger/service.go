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

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fundflow-go/internal/events"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"
	"fundflow-go/internal/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service drives the transaction lifecycle saga: create, fraud verdict,
// settlement against the balance store.
type Service struct {
	transactions       store.TransactionStore
	bus                events.Bus
	balances           store.BalanceClient
	converter          store.CurrencyConverter
	telemetry          *telemetry.Telemetry
	settlementCurrency string
}

type Config struct {
	Transactions       store.TransactionStore
	Bus                events.Bus
	Balances           store.BalanceClient
	Converter          store.CurrencyConverter
	Telemetry          *telemetry.Telemetry
	SettlementCurrency string
}

func NewService(cfg Config) *Service {
	settlement := cfg.SettlementCurrency
	if settlement == "" {
		settlement = "USD"
	}
	return &Service{
		transactions:       cfg.Transactions,
		bus:                cfg.Bus,
		balances:           cfg.Balances,
		converter:          cfg.Converter,
		telemetry:          cfg.Telemetry,
		settlementCurrency: strings.ToUpper(settlement),
	}
}

// CreateTransaction validates and persists a new transaction in
// PENDING_FRAUD_CHECK and hands it to the fraud oracle via the event
// channel. A publish failure is logged and dropped: the transaction stays
// PENDING_FRAUD_CHECK until something outside this process notices it.
func (s *Service) CreateTransaction(ctx context.Context, userId string, amount decimal.Decimal, description string, txType models.TransactionType, currency string) (*models.Transaction, error) {
	span := s.telemetry.StartSpan("create_transaction")
	defer span.End()

	if userId == "" {
		return nil, fmt.Errorf("%w: userId is required", store.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", store.ErrValidation, amount)
	}
	if txType != models.TypeTopUp && txType != models.TypePurchase {
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrValidation, txType)
	}
	if currency == "" {
		currency = s.settlementCurrency
	}
	currency = strings.ToUpper(currency)

	// Normalize into the settlement currency before anything is persisted.
	if currency != s.settlementCurrency {
		conversion, err := s.converter.Convert(ctx, amount, currency, s.settlementCurrency)
		if err != nil {
			return nil, err
		}
		zap.L().Info("Amount converted to settlement currency",
			zap.String("user_id", userId),
			zap.String("from_currency", currency),
			zap.String("original_amount", amount.String()),
			zap.String("converted_amount", conversion.ConvertedAmount.String()),
			zap.String("rate", conversion.Rate.String()))
		amount = conversion.ConvertedAmount
		s.telemetry.Count("currency_conversions", 1)
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		Id:          uuid.New().String(),
		UserId:      userId,
		Amount:      amount,
		Description: description,
		Type:        txType,
		Status:      models.StatusPendingFraudCheck,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	s.telemetry.Count("transactions_created", 1)

	s.publishFraudCheck(ctx, tx, span)
	return tx, nil
}

// publishFraudCheck emits the fraud-check-request event keyed by the
// transaction id. The drop policy is explicit: a failed publish is logged
// and abandoned, never retried.
func (s *Service) publishFraudCheck(ctx context.Context, tx *models.Transaction, span *telemetry.Span) {
	payload, err := json.Marshal(tx)
	if err != nil {
		zap.L().Error("Failed to encode fraud check request, dropping",
			zap.String("transaction_id", tx.Id), zap.Error(err))
		s.telemetry.Count("fraud_check_publish_dropped", 1)
		return
	}

	headers := map[string]string{events.HeaderTraceParent: span.TraceId()}
	result, err := s.bus.Publish(ctx, events.TopicFraudCheckRequest, tx.Id, payload, headers)
	if err != nil {
		zap.L().Error("Failed to publish fraud check request, dropping",
			zap.String("transaction_id", tx.Id), zap.Error(err))
		s.telemetry.Count("fraud_check_publish_dropped", 1)
		return
	}

	zap.L().Info("Published fraud check request",
		zap.String("transaction_id", tx.Id),
		zap.String("topic", result.Topic),
		zap.Int64("offset", result.Offset))
	s.telemetry.Count("fraud_check_published", 1)
}

// ApplyFraudResult advances the saga on a fraud verdict. The guarded
// PENDING_FRAUD_CHECK transition is the idempotency barrier: a redelivered
// verdict loses the guard and returns without touching any balance. A
// settlement failure leaves the transaction PENDING_BALANCE_DEDUCTION with
// no inline retry; the reconciliation engine surfaces it later.
func (s *Service) ApplyFraudResult(ctx context.Context, transactionId string, verdict models.TransactionStatus) error {
	tx, err := s.transactions.GetTransaction(ctx, transactionId)
	if err != nil {
		return err
	}

	if verdict == models.StatusRejected {
		err := s.transactions.TransitionStatus(ctx, transactionId,
			models.StatusPendingFraudCheck, models.StatusRejected)
		if errors.Is(err, store.ErrInvalidTransition) {
			zap.L().Info("Ignoring replayed fraud rejection",
				zap.String("transaction_id", transactionId),
				zap.String("status", string(tx.Status)))
			return nil
		}
		if err == nil {
			s.telemetry.Count("transactions_rejected", 1)
		}
		return err
	}

	err = s.transactions.TransitionStatus(ctx, transactionId,
		models.StatusPendingFraudCheck, models.StatusPendingBalanceDeduction)
	if errors.Is(err, store.ErrInvalidTransition) {
		zap.L().Info("Ignoring replayed fraud approval",
			zap.String("transaction_id", transactionId),
			zap.String("status", string(tx.Status)))
		return nil
	}
	if err != nil {
		return err
	}

	return s.settle(ctx, tx)
}

// settle reads the current balance, computes the absolute target and writes
// it back. The two steps are not atomic; concurrent settlements for the same
// user can lose an update, which the reconciliation sweep detects.
func (s *Service) settle(ctx context.Context, tx *models.Transaction) error {
	snapshot, err := s.balances.GetBalance(ctx, tx.UserId)
	if err != nil {
		zap.L().Error("Failed to read balance, settlement deferred to reconciliation",
			zap.String("transaction_id", tx.Id),
			zap.String("user_id", tx.UserId),
			zap.Error(err))
		return err
	}

	var newBalance decimal.Decimal
	switch tx.Type {
	case models.TypeTopUp:
		newBalance = snapshot.Balance.Add(tx.Amount)
	case models.TypePurchase:
		newBalance = snapshot.Balance.Sub(tx.Amount)
	default:
		return fmt.Errorf("%w: unknown transaction type %q", store.ErrValidation, tx.Type)
	}

	if err := s.balances.UpdateBalance(ctx, tx.UserId, newBalance); err != nil {
		zap.L().Error("Failed to update balance, settlement deferred to reconciliation",
			zap.String("transaction_id", tx.Id),
			zap.String("user_id", tx.UserId),
			zap.String("target_balance", newBalance.String()),
			zap.Error(err))
		return err
	}

	if err := s.transactions.TransitionStatus(ctx, tx.Id,
		models.StatusPendingBalanceDeduction, models.StatusProcessed); err != nil {
		return err
	}

	zap.L().Info("Transaction settled",
		zap.String("transaction_id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
		zap.String("old_balance", snapshot.Balance.String()),
		zap.String("new_balance", newBalance.String()))
	s.telemetry.Count("transactions_processed", 1)
	return nil
}

// GetUserTransactions lists a user's ledger history, newest first.
func (s *Service) GetUserTransactions(ctx context.Context, userId string) ([]models.Transaction, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: userId is required", store.ErrValidation)
	}
	return s.transactions.GetUserTransactions(ctx, userId)
}
