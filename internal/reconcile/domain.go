package reconcile

import (
	"time"

	"fundflow-go/internal/models"

	"github.com/shopspring/decimal"
)

// FilterMature returns the records old enough to audit. Records younger than
// the maturity window may still be mid-saga and are left for a later sweep.
func FilterMature(records []models.ReconciliationRecord, window time.Duration, now time.Time) []models.ReconciliationRecord {
	cutoff := now.Add(-window)
	mature := make([]models.ReconciliationRecord, 0, len(records))
	for _, r := range records {
		if !r.CreatedAt.After(cutoff) {
			mature = append(mature, r)
		}
	}
	return mature
}

// GroupByUser partitions records per user, preserving order within each user.
func GroupByUser(records []models.ReconciliationRecord) map[string][]models.ReconciliationRecord {
	groups := make(map[string][]models.ReconciliationRecord)
	for _, r := range records {
		groups[r.UserId] = append(groups[r.UserId], r)
	}
	return groups
}

// ExpectedBalance folds the net effect of a user's records over a starting
// balance. Only PROCESSED transactions move money: TOP_UP adds, PURCHASE
// subtracts, everything else contributes nothing.
func ExpectedBalance(start decimal.Decimal, records []models.ReconciliationRecord) decimal.Decimal {
	expected := start
	for _, r := range records {
		if r.Status != models.StatusProcessed {
			continue
		}
		switch r.Type {
		case models.TypeTopUp:
			expected = expected.Add(r.Amount)
		case models.TypePurchase:
			expected = expected.Sub(r.Amount)
		}
	}
	return expected
}

// Reconcile compares a user's actual balance against the balance expected
// from their records. The comparison starts from zero: the balance store
// holds only settled money, so the fold over every PROCESSED record should
// land exactly on the actual balance. Differences beyond the tolerance are
// discrepancies; the default tolerance is zero.
func Reconcile(userId string, actual decimal.Decimal, records []models.ReconciliationRecord, tolerance decimal.Decimal) models.ReconciliationResult {
	expected := ExpectedBalance(decimal.Zero, records)
	diff := actual.Sub(expected)
	return models.ReconciliationResult{
		UserId:          userId,
		CurrentBalance:  actual,
		ExpectedBalance: expected,
		Difference:      diff,
		HasDiscrepancy:  diff.Abs().GreaterThan(tolerance),
		Transactions:    records,
	}
}
