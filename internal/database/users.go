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

// CreateUser inserts a balance service account with a zero starting balance.
func (s *Service) CreateUser(ctx context.Context, userId, username, email string) (*models.User, error) {
	_, err := s.db.ExecContext(ctx, queryInsertUser, userId, username, email, decimal.Zero.String())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUserById(ctx, userId)
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	var user models.User
	var balanceStr string

	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).Scan(
		&user.Id, &user.Username, &user.Email, &balanceStr,
		&user.IsFrozen, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	return &user, nil
}

// UpdateUserBalance writes an absolute balance. The write is refused while
// the account is frozen; reconciliation owns frozen accounts.
func (s *Service) UpdateUserBalance(ctx context.Context, userId string, newBalance decimal.Decimal) (*models.User, error) {
	user, err := s.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user.IsFrozen {
		return nil, fmt.Errorf("%w: user %s", store.ErrAccountFrozen, userId)
	}

	if _, err := s.db.ExecContext(ctx, queryUpdateUserBalance, newBalance.String(), userId); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	zap.L().Info("Balance updated",
		zap.String("user_id", userId),
		zap.String("old_balance", user.Balance.String()),
		zap.String("new_balance", newBalance.String()))

	return s.GetUserById(ctx, userId)
}

// SetUserFrozen flips the frozen flag. Setting the flag to its current value
// succeeds: freezing an already-frozen account is a no-op by contract.
func (s *Service) SetUserFrozen(ctx context.Context, userId string, frozen bool) (*models.User, error) {
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, querySetUserFrozen, frozen, userId); err != nil {
		return nil, fmt.Errorf("failed to set frozen status: %w", err)
	}

	zap.L().Info("Account frozen status updated",
		zap.String("user_id", userId),
		zap.Bool("frozen", frozen),
		zap.Time("at", time.Now().UTC()))

	return s.GetUserById(ctx, userId)
}
