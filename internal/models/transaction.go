package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the direction of a transaction.
type TransactionType string

const (
	TypeTopUp    TransactionType = "TOP_UP"
	TypePurchase TransactionType = "PURCHASE"
)

// TransactionStatus is the saga lifecycle state of a transaction.
// Transitions only move forward:
// PENDING_FRAUD_CHECK -> PENDING_BALANCE_DEDUCTION -> PROCESSED, or
// PENDING_FRAUD_CHECK -> REJECTED.
type TransactionStatus string

const (
	StatusPendingFraudCheck       TransactionStatus = "PENDING_FRAUD_CHECK"
	StatusApproved                TransactionStatus = "APPROVED"
	StatusRejected                TransactionStatus = "REJECTED"
	StatusPendingBalanceDeduction TransactionStatus = "PENDING_BALANCE_DEDUCTION"
	StatusProcessed               TransactionStatus = "PROCESSED"
)

// ReconciliationStatus tracks the audit outcome for a transaction.
type ReconciliationStatus string

const (
	ReconciliationPending     ReconciliationStatus = "PENDING"
	ReconciliationReconciled  ReconciliationStatus = "RECONCILED"
	ReconciliationDiscrepancy ReconciliationStatus = "DISCREPANCY"
)

// Transaction is the ledger's transaction of record. Everything except
// Status and UpdatedAt is immutable after creation.
type Transaction struct {
	Id          string            `json:"id" db:"id"`
	UserId      string            `json:"userId" db:"user_id"`
	Amount      decimal.Decimal   `json:"amount" db:"amount"`
	Description string            `json:"description" db:"description"`
	Type        TransactionType   `json:"type" db:"type"`
	Status      TransactionStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
}

// ReconciliationRecord mirrors a transaction on the reconciliation side.
// Created when a fraud-check-request event is observed, updated on
// fraud-result events and on every sweep that touches it.
type ReconciliationRecord struct {
	Id                   string               `db:"id"`
	TransactionId        string               `db:"transaction_id"`
	UserId               string               `db:"user_id"`
	Amount               decimal.Decimal      `db:"amount"`
	Description          string               `db:"description"`
	Type                 TransactionType      `db:"type"`
	Status               TransactionStatus    `db:"status"`
	ReconciliationStatus ReconciliationStatus `db:"reconciliation_status"`
	Reconciled           bool                 `db:"reconciled"`
	IsDiscrepancy        bool                 `db:"is_discrepancy"`
	CreatedAt            time.Time            `db:"created_at"`
	LastCheckedAt        time.Time            `db:"last_checked_at"`
}

// ReconciliationResult is the per-user outcome of one sweep iteration.
// It is never persisted.
type ReconciliationResult struct {
	UserId          string
	CurrentBalance  decimal.Decimal
	ExpectedBalance decimal.Decimal
	Difference      decimal.Decimal
	HasDiscrepancy  bool
	Transactions    []ReconciliationRecord
}

// UserBalanceSnapshot is the balance service's view of a user, read and
// written only through the adapter.
type UserBalanceSnapshot struct {
	UserId   string          `json:"userId"`
	Balance  decimal.Decimal `json:"balance"`
	IsFrozen bool            `json:"isFrozen"`
}

// User is a balance service account.
type User struct {
	Id        string          `db:"id"`
	Username  string          `db:"username"`
	Email     string          `db:"email"`
	Balance   decimal.Decimal `db:"balance"`
	IsFrozen  bool            `db:"is_frozen"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
