package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTransaction persists a new ledger transaction.
func (s *Service) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		tx.Id, tx.UserId, tx.Amount.String(), tx.Description,
		string(tx.Type), string(tx.Status), tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	zap.L().Info("Transaction persisted",
		zap.String("transaction_id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
		zap.String("status", string(tx.Status)))
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, queryGetTransaction, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (s *Service) GetUserTransactions(ctx context.Context, userId string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetUserTransactions, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query user transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// TransitionStatus moves a transaction from exactly `from` to `to`. The
// WHERE clause carries the expected current status, so a replayed or
// out-of-order transition affects zero rows and surfaces as
// ErrInvalidTransition instead of moving the state machine backward.
func (s *Service) TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus) error {
	result, err := s.db.ExecContext(ctx, queryTransitionStatus, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, queryTransactionExists, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
			}
			return fmt.Errorf("failed to check transaction existence: %w", err)
		}
		return fmt.Errorf("%w: transaction %s is not in %s", store.ErrInvalidTransition, id, from)
	}

	zap.L().Info("Transaction status updated",
		zap.String("transaction_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var amountStr, typeStr, statusStr string

	err := row.Scan(&tx.Id, &tx.UserId, &amountStr, &tx.Description,
		&typeStr, &statusStr, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	tx.Type = models.TransactionType(typeStr)
	tx.Status = models.TransactionStatus(statusStr)
	return &tx, nil
}
