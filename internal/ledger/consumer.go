package ledger

import (
	"context"
	"encoding/json"

	"fundflow-go/internal/events"
	"fundflow-go/internal/models"
	"fundflow-go/internal/telemetry"

	"go.uber.org/zap"
)

// FraudResultHandler decodes fraud verdicts off the event channel and feeds
// them to the saga. A payload that does not decode is logged and skipped so a
// poison record cannot wedge the consumer.
func FraudResultHandler(svc *Service, tel *telemetry.Telemetry) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		span := tel.ContinueSpan("apply_fraud_result", event.Headers[events.HeaderTraceParent])
		defer span.End()

		var tx models.Transaction
		if err := json.Unmarshal(event.Payload, &tx); err != nil {
			zap.L().Error("Skipping undecodable fraud result",
				zap.String("key", event.Key),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
			tel.Count("fraud_result_decode_failures", 1)
			return nil
		}

		verdict := tx.Status
		if verdict != models.StatusRejected {
			// Anything the oracle did not explicitly reject settles.
			verdict = models.StatusApproved
		}

		zap.L().Info("Received fraud result",
			zap.String("transaction_id", tx.Id),
			zap.String("verdict", string(verdict)),
			zap.String("trace_id", span.TraceId()))

		return svc.ApplyFraudResult(ctx, tx.Id, verdict)
	}
}
