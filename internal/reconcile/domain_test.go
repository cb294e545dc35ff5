package reconcile

import (
	"testing"
	"time"

	"fundflow-go/internal/models"

	"github.com/shopspring/decimal"
)

func record(txId, userId, amount string, txType models.TransactionType, status models.TransactionStatus, age time.Duration, now time.Time) models.ReconciliationRecord {
	return models.ReconciliationRecord{
		Id:            "rec-" + txId,
		TransactionId: txId,
		UserId:        userId,
		Amount:        decimal.RequireFromString(amount),
		Type:          txType,
		Status:        status,
		CreatedAt:     now.Add(-age),
	}
}

func TestFilterMature(t *testing.T) {
	now := time.Now().UTC()
	window := 5 * time.Minute
	records := []models.ReconciliationRecord{
		record("young", "user1", "10", models.TypeTopUp, models.StatusProcessed, time.Minute, now),
		record("old", "user1", "10", models.TypeTopUp, models.StatusProcessed, 6*time.Minute, now),
	}

	mature := FilterMature(records, window, now)
	if len(mature) != 1 {
		t.Fatalf("Expected 1 mature record, got %d", len(mature))
	}
	if mature[0].TransactionId != "old" {
		t.Errorf("Expected the 6-minute-old record, got %s", mature[0].TransactionId)
	}
}

func TestFilterMature_BoundaryIsInclusive(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("exact", "user1", "10", models.TypeTopUp, models.StatusProcessed, 5*time.Minute, now),
	}
	if got := FilterMature(records, 5*time.Minute, now); len(got) != 1 {
		t.Errorf("Record exactly at the window boundary should be mature, got %d", len(got))
	}
}

func TestGroupByUser(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("t1", "alice", "10", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
		record("t2", "bob", "20", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
		record("t3", "alice", "5", models.TypePurchase, models.StatusProcessed, time.Hour, now),
	}

	groups := GroupByUser(records)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if len(groups["alice"]) != 2 || len(groups["bob"]) != 1 {
		t.Errorf("Unexpected group sizes: alice=%d bob=%d", len(groups["alice"]), len(groups["bob"]))
	}
	if groups["alice"][0].TransactionId != "t1" {
		t.Errorf("Group order not preserved: %s first", groups["alice"][0].TransactionId)
	}
}

func TestExpectedBalance_OnlyProcessedCounts(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("t1", "user1", "100", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
		record("t2", "user1", "40", models.TypePurchase, models.StatusProcessed, time.Hour, now),
		record("t3", "user1", "999", models.TypeTopUp, models.StatusRejected, time.Hour, now),
		record("t4", "user1", "50", models.TypePurchase, models.StatusPendingBalanceDeduction, time.Hour, now),
	}

	expected := ExpectedBalance(decimal.Zero, records)
	if !expected.Equal(decimal.RequireFromString("60")) {
		t.Errorf("Expected 60, got %s", expected)
	}
}

func TestReconcile_CleanMatch(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("t1", "user1", "100", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
		record("t2", "user1", "40", models.TypePurchase, models.StatusProcessed, time.Hour, now),
	}

	result := Reconcile("user1", decimal.RequireFromString("60"), records, decimal.Zero)
	if result.HasDiscrepancy {
		t.Errorf("Expected clean reconciliation, got discrepancy of %s", result.Difference)
	}
	if !result.ExpectedBalance.Equal(decimal.RequireFromString("60")) {
		t.Errorf("Expected balance 60, got %s", result.ExpectedBalance)
	}
}

func TestReconcile_Discrepancy(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("t1", "user1", "100", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
		record("t2", "user1", "40", models.TypePurchase, models.StatusProcessed, time.Hour, now),
	}

	// A lost update left the actual balance at 50 instead of 60.
	result := Reconcile("user1", decimal.RequireFromString("50"), records, decimal.Zero)
	if !result.HasDiscrepancy {
		t.Fatal("Expected discrepancy")
	}
	if !result.Difference.Equal(decimal.RequireFromString("-10")) {
		t.Errorf("Expected difference -10, got %s", result.Difference)
	}
}

func TestReconcile_ToleranceAbsorbsDrift(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ReconciliationRecord{
		record("t1", "user1", "100", models.TypeTopUp, models.StatusProcessed, time.Hour, now),
	}

	tolerance := decimal.RequireFromString("0.01")
	result := Reconcile("user1", decimal.RequireFromString("100.01"), records, tolerance)
	if result.HasDiscrepancy {
		t.Errorf("Drift within tolerance flagged as discrepancy: %s", result.Difference)
	}

	result = Reconcile("user1", decimal.RequireFromString("100.02"), records, tolerance)
	if !result.HasDiscrepancy {
		t.Error("Drift beyond tolerance not flagged")
	}
}
