package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundflow-go/internal/models"
	"fundflow-go/internal/store"
)

func TestRecordTransaction_Duplicate(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "25", models.TypeTopUp)

	if err := service.RecordTransaction(ctx, tx); err != nil {
		t.Fatalf("First RecordTransaction failed: %v", err)
	}

	// A redelivered event hits the unique transaction id.
	err := service.RecordTransaction(ctx, tx)
	if !errors.Is(err, store.ErrDuplicateRecord) {
		t.Errorf("Expected ErrDuplicateRecord, got: %v", err)
	}

	records, err := service.FindUnreconciled(ctx)
	if err != nil {
		t.Fatalf("FindUnreconciled failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after duplicate insert, got %d", len(records))
	}
}

func TestFindUnreconciled_JoinsLiveStatus(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tx := newTestTransaction("tx1", "user1", "100", models.TypeTopUp)

	if err := service.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if err := service.RecordTransaction(ctx, tx); err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}

	// Advance the ledger status without touching the mirror.
	if err := service.TransitionStatus(ctx, "tx1", models.StatusPendingFraudCheck, models.StatusPendingBalanceDeduction); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if err := service.TransitionStatus(ctx, "tx1", models.StatusPendingBalanceDeduction, models.StatusProcessed); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}

	records, err := service.FindUnreconciled(ctx)
	if err != nil {
		t.Fatalf("FindUnreconciled failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Status != models.StatusProcessed {
		t.Errorf("Expected live status %s, got %s", models.StatusProcessed, records[0].Status)
	}
}

func TestUpdateTransactionStatus_MissingRecordIsNotAnError(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.UpdateTransactionStatus(context.Background(), "never-recorded", models.StatusRejected)
	if err != nil {
		t.Errorf("Expected nil for missing record, got: %v", err)
	}
}

func TestMarkBatch_Reconciled(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	ids := []string{"tx1", "tx2"}
	for _, id := range ids {
		if err := service.RecordTransaction(ctx, newTestTransaction(id, "user1", "10", models.TypeTopUp)); err != nil {
			t.Fatalf("RecordTransaction %s failed: %v", id, err)
		}
	}

	if err := service.MarkBatch(ctx, ids, models.ReconciliationReconciled, time.Now().UTC()); err != nil {
		t.Fatalf("MarkBatch failed: %v", err)
	}

	records, err := service.FindUnreconciled(ctx)
	if err != nil {
		t.Fatalf("FindUnreconciled failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no unreconciled records after MarkBatch, got %d", len(records))
	}
}

func TestMarkBatch_DiscrepancyLeavesSweepQueue(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.RecordTransaction(ctx, newTestTransaction("tx1", "user1", "10", models.TypePurchase)); err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}

	if err := service.MarkBatch(ctx, []string{"tx1"}, models.ReconciliationDiscrepancy, time.Now().UTC()); err != nil {
		t.Fatalf("MarkBatch failed: %v", err)
	}

	// Discrepancies are terminal for the sweep: they never come back as
	// unreconciled even though reconciled stays false.
	records, err := service.FindUnreconciled(ctx)
	if err != nil {
		t.Fatalf("FindUnreconciled failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected discrepancy records excluded from sweep, got %d", len(records))
	}
}

func TestMarkBatch_Empty(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.MarkBatch(context.Background(), nil, models.ReconciliationReconciled, time.Now().UTC()); err != nil {
		t.Errorf("Expected nil for empty batch, got: %v", err)
	}
}
