package store

import (
	"context"
	"errors"
	"time"

	"fundflow-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all components. HTTP layers map these onto
// the response taxonomy; everything else tests them with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrAccountFrozen       = errors.New("account is frozen")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDuplicateRecord     = errors.New("duplicate record")
)

// TransactionStore is the ledger's authoritative transaction-of-record store.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userId string) ([]models.Transaction, error)
	// TransitionStatus moves a transaction from exactly `from` to `to`.
	// Returns ErrInvalidTransition when the row is not in `from`, which is
	// what makes redelivered events harmless.
	TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus) error
}

// ReconciliationStore owns the reconciliation mirror of the ledger.
type ReconciliationStore interface {
	RecordTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, transactionId string, status models.TransactionStatus) error
	FindUnreconciled(ctx context.Context) ([]models.ReconciliationRecord, error)
	// MarkBatch applies one reconciliation outcome to every listed
	// transaction atomically; a user's batch is never split.
	MarkBatch(ctx context.Context, transactionIds []string, status models.ReconciliationStatus, checkedAt time.Time) error
}

// BalanceClient is the contract to the external balance store.
// UpdateBalance takes an absolute target, not a delta; callers read first,
// compute, then write, and the second of two concurrent writers wins.
type BalanceClient interface {
	GetBalance(ctx context.Context, userId string) (*models.UserBalanceSnapshot, error)
	UpdateBalance(ctx context.Context, userId string, newBalance decimal.Decimal) error
	Freeze(ctx context.Context, userId string) error
	Unfreeze(ctx context.Context, userId string) error
}

// CurrencyConverter normalizes amounts into the settlement currency.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*models.CurrencyConversionResponse, error)
}
