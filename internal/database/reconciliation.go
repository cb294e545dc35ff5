package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordTransaction mirrors a transaction into the reconciliation table.
// Redelivered fraud-check-request events hit the UNIQUE(transaction_id)
// constraint and come back as ErrDuplicateRecord.
func (s *Service) RecordTransaction(ctx context.Context, tx *models.Transaction) error {
	_, err := s.db.ExecContext(ctx, queryInsertReconciliationRecord,
		uuid.New().String(), tx.Id, tx.UserId, tx.Amount.String(),
		tx.Description, string(tx.Type), string(tx.Status), tx.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: reconciliation record for transaction %s already exists", store.ErrDuplicateRecord, tx.Id)
		}
		return fmt.Errorf("failed to insert reconciliation record: %w", err)
	}

	zap.L().Info("Recorded transaction for reconciliation",
		zap.String("transaction_id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))
	return nil
}

// UpdateTransactionStatus refreshes the mirrored saga status on a record.
// A record that does not exist yet is not an error: fraud-result can arrive
// before this consumer has seen the fraud-check-request redelivery.
func (s *Service) UpdateTransactionStatus(ctx context.Context, transactionId string, status models.TransactionStatus) error {
	_, err := s.db.ExecContext(ctx, queryUpdateReconciliationStatus,
		string(status), time.Now().UTC(), transactionId)
	if err != nil {
		return fmt.Errorf("failed to update reconciliation record status: %w", err)
	}
	return nil
}

// FindUnreconciled returns every record still awaiting an audit outcome,
// with the status joined live from the ledger table where available.
func (s *Service) FindUnreconciled(ctx context.Context) ([]models.ReconciliationRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryFindUnreconciled)
	if err != nil {
		return nil, fmt.Errorf("failed to query unreconciled records: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var records []models.ReconciliationRecord
	for rows.Next() {
		var rec models.ReconciliationRecord
		var amountStr, typeStr, statusStr, reconStatusStr string

		err := rows.Scan(&rec.Id, &rec.TransactionId, &rec.UserId, &amountStr,
			&rec.Description, &typeStr, &statusStr, &reconStatusStr,
			&rec.Reconciled, &rec.IsDiscrepancy, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation record: %w", err)
		}

		rec.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		rec.Type = models.TransactionType(typeStr)
		rec.Status = models.TransactionStatus(statusStr)
		rec.ReconciliationStatus = models.ReconciliationStatus(reconStatusStr)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconciliation rows: %w", err)
	}
	return records, nil
}

// MarkBatch applies one outcome to all listed transactions inside a single
// database transaction. A user's sweep batch is never split between outcomes.
func (s *Service) MarkBatch(ctx context.Context, transactionIds []string, status models.ReconciliationStatus, checkedAt time.Time) error {
	if len(transactionIds) == 0 {
		return nil
	}

	reconciled := status == models.ReconciliationReconciled
	isDiscrepancy := status == models.ReconciliationDiscrepancy

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range transactionIds {
		if _, err := tx.ExecContext(ctx, queryMarkReconciliation,
			string(status), reconciled, isDiscrepancy, checkedAt, id); err != nil {
			return fmt.Errorf("failed to mark transaction %s as %s: %w", id, status, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reconciliation batch: %w", err)
	}

	zap.L().Info("Reconciliation batch marked",
		zap.String("outcome", string(status)),
		zap.Int("transactions", len(transactionIds)))
	return nil
}
