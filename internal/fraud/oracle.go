/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fraud

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"fundflow-go/internal/events"
	"fundflow-go/internal/models"
	"fundflow-go/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Oracle consumes fraud check requests, simulates an external screening call
// with a randomized delay, and publishes a verdict on the result topic.
type Oracle struct {
	bus        events.Bus
	telemetry  *telemetry.Telemetry
	minDelay   time.Duration
	maxDelay   time.Duration
	rejectOver decimal.Decimal
}

func NewOracle(bus events.Bus, tel *telemetry.Telemetry, cfg models.FraudConfig) *Oracle {
	minDelay := cfg.MinDelay
	maxDelay := cfg.MaxDelay
	if minDelay <= 0 {
		minDelay = 100 * time.Millisecond
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Oracle{
		bus:        bus,
		telemetry:  tel,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		rejectOver: cfg.RejectOver,
	}
}

// Handler returns the event handler for the fraud-check-request topic.
func (o *Oracle) Handler() events.Handler {
	return func(ctx context.Context, event events.Event) error {
		span := o.telemetry.ContinueSpan("fraud_check", event.Headers[events.HeaderTraceParent])
		defer span.End()

		var tx models.Transaction
		if err := json.Unmarshal(event.Payload, &tx); err != nil {
			zap.L().Error("Skipping undecodable fraud check request",
				zap.String("key", event.Key),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
			return nil
		}

		if err := o.simulateScreening(ctx); err != nil {
			return err
		}

		verdict := o.verdict(tx.Amount)
		tx.Status = verdict
		tx.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(&tx)
		if err != nil {
			zap.L().Error("Failed to encode fraud result",
				zap.String("transaction_id", tx.Id), zap.Error(err))
			return err
		}

		headers := map[string]string{events.HeaderTraceParent: span.TraceId()}
		result, err := o.bus.Publish(ctx, events.TopicFraudResult, tx.Id, payload, headers)
		if err != nil {
			return err
		}

		zap.L().Info("Published fraud verdict",
			zap.String("transaction_id", tx.Id),
			zap.String("verdict", string(verdict)),
			zap.String("amount", tx.Amount.String()),
			zap.Int64("offset", result.Offset))
		o.telemetry.Count("fraud_checks_completed", 1)
		if verdict == models.StatusRejected {
			o.telemetry.Count("fraud_checks_rejected", 1)
		}
		return nil
	}
}

// simulateScreening sleeps a uniform random duration between the configured
// bounds, respecting context cancellation.
func (o *Oracle) simulateScreening(ctx context.Context) error {
	delay := o.minDelay
	if spread := o.maxDelay - o.minDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// verdict rejects amounts above the configured threshold. A zero threshold
// disables rejection entirely.
func (o *Oracle) verdict(amount decimal.Decimal) models.TransactionStatus {
	if o.rejectOver.IsPositive() && amount.GreaterThan(o.rejectOver) {
		return models.StatusRejected
	}
	return models.StatusApproved
}
