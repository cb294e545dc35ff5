package reconcile

import (
	"context"
	"encoding/json"
	"errors"

	"fundflow-go/internal/events"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"
	"fundflow-go/internal/telemetry"

	"go.uber.org/zap"
)

// RequestHandler mirrors every fraud-check-request into the reconciliation
// store. Redelivered events hit the unique transaction id and are ignored.
func RequestHandler(records store.ReconciliationStore, tel *telemetry.Telemetry) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		span := tel.ContinueSpan("record_transaction", event.Headers[events.HeaderTraceParent])
		defer span.End()

		var tx models.Transaction
		if err := json.Unmarshal(event.Payload, &tx); err != nil {
			zap.L().Error("Skipping undecodable transaction record",
				zap.String("key", event.Key),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
			return nil
		}

		err := records.RecordTransaction(ctx, &tx)
		if errors.Is(err, store.ErrDuplicateRecord) {
			zap.L().Info("Transaction already recorded",
				zap.String("transaction_id", tx.Id))
			return nil
		}
		if err != nil {
			return err
		}
		tel.Count("transactions_recorded", 1)
		return nil
	}
}

// ResultHandler keeps the mirrored status current as fraud verdicts arrive.
// A verdict for a transaction that was never recorded is not an error; the
// record side of the channel may simply be behind.
func ResultHandler(records store.ReconciliationStore, tel *telemetry.Telemetry) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		span := tel.ContinueSpan("update_transaction_status", event.Headers[events.HeaderTraceParent])
		defer span.End()

		var tx models.Transaction
		if err := json.Unmarshal(event.Payload, &tx); err != nil {
			zap.L().Error("Skipping undecodable status update",
				zap.String("key", event.Key),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
			return nil
		}

		if err := records.UpdateTransactionStatus(ctx, tx.Id, tx.Status); err != nil {
			return err
		}
		tel.Count("transaction_statuses_updated", 1)
		return nil
	}
}
