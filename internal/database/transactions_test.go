package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := NewServiceFromDB(db)

	// Use the actual schema initialization
	if err := service.InitSchema(false); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func newTestTransaction(id, userId string, amount string, txType models.TransactionType) *models.Transaction {
	now := time.Now().UTC()
	return &models.Transaction{
		Id:          id,
		UserId:      userId,
		Amount:      decimal.RequireFromString(amount),
		Description: "test transaction",
		Type:        txType,
		Status:      models.StatusPendingFraudCheck,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "100.50", models.TypeTopUp)

	if err := service.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	got, err := service.GetTransaction(ctx, "tx1")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if got.UserId != "user1" {
		t.Errorf("Expected userId user1, got %s", got.UserId)
	}
	if !got.Amount.Equal(tx.Amount) {
		t.Errorf("Expected amount %s, got %s", tx.Amount, got.Amount)
	}
	if got.Status != models.StatusPendingFraudCheck {
		t.Errorf("Expected status %s, got %s", models.StatusPendingFraudCheck, got.Status)
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetTransaction(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestTransitionStatus_HappyPath(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "50", models.TypePurchase)
	if err := service.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	err := service.TransitionStatus(ctx, "tx1", models.StatusPendingFraudCheck, models.StatusPendingBalanceDeduction)
	if err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	err = service.TransitionStatus(ctx, "tx1", models.StatusPendingBalanceDeduction, models.StatusProcessed)
	if err != nil {
		t.Fatalf("Second TransitionStatus failed: %v", err)
	}

	got, err := service.GetTransaction(ctx, "tx1")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if got.Status != models.StatusProcessed {
		t.Errorf("Expected %s, got %s", models.StatusProcessed, got.Status)
	}
}

func TestTransitionStatus_WrongCurrentStatus(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "50", models.TypePurchase)
	if err := service.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	// The row is in PENDING_FRAUD_CHECK, so a transition expecting
	// PENDING_BALANCE_DEDUCTION must fail without changing anything.
	err := service.TransitionStatus(ctx, "tx1", models.StatusPendingBalanceDeduction, models.StatusProcessed)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got: %v", err)
	}

	got, err := service.GetTransaction(ctx, "tx1")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if got.Status != models.StatusPendingFraudCheck {
		t.Errorf("Status moved despite failed guard: %s", got.Status)
	}
}

func TestTransitionStatus_Replay(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "50", models.TypeTopUp)
	if err := service.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := service.TransitionStatus(ctx, "tx1", models.StatusPendingFraudCheck, models.StatusPendingBalanceDeduction); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}

	// Replaying the same transition loses the guard.
	err := service.TransitionStatus(ctx, "tx1", models.StatusPendingFraudCheck, models.StatusPendingBalanceDeduction)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on replay, got: %v", err)
	}
}

func TestTransitionStatus_MissingTransaction(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.TransitionStatus(context.Background(), "missing", models.StatusPendingFraudCheck, models.StatusRejected)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestGetUserTransactions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []string{"tx1", "tx2", "tx3"} {
		user := "user1"
		if id == "tx3" {
			user = "user2"
		}
		if err := service.CreateTransaction(ctx, newTestTransaction(id, user, "10", models.TypeTopUp)); err != nil {
			t.Fatalf("CreateTransaction %s failed: %v", id, err)
		}
	}

	transactions, err := service.GetUserTransactions(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserTransactions failed: %v", err)
	}
	if len(transactions) != 2 {
		t.Errorf("Expected 2 transactions for user1, got %d", len(transactions))
	}
	for _, tx := range transactions {
		if tx.UserId != "user1" {
			t.Errorf("Transaction %s belongs to %s", tx.Id, tx.UserId)
		}
	}
}
