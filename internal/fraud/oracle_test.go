package fraud

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"fundflow-go/internal/events"
	"fundflow-go/internal/models"
	"fundflow-go/internal/telemetry"

	"github.com/shopspring/decimal"
)

type captureBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (c *captureBus) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) (*events.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, events.Event{
		Topic: topic, Key: key, Payload: payload, Headers: headers,
		Offset: int64(len(c.published) + 1),
	})
	return &events.PublishResult{Topic: topic, Key: key, Offset: int64(len(c.published))}, nil
}

func (c *captureBus) Subscribe(topic, group string) (*events.Subscription, error) { return nil, nil }
func (c *captureBus) Close()                                                     {}

func fastConfig(rejectOver string) models.FraudConfig {
	return models.FraudConfig{
		MinDelay:   time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		RejectOver: decimal.RequireFromString(rejectOver),
	}
}

func checkRequest(t *testing.T, id, amount string) events.Event {
	t.Helper()
	tx := &models.Transaction{
		Id:        id,
		UserId:    "user1",
		Amount:    decimal.RequireFromString(amount),
		Type:      models.TypePurchase,
		Status:    models.StatusPendingFraudCheck,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Failed to encode transaction: %v", err)
	}
	return events.Event{
		Topic:   events.TopicFraudCheckRequest,
		Key:     id,
		Payload: payload,
		Headers: map[string]string{events.HeaderTraceParent: "trace-abc"},
	}
}

func verdictOf(t *testing.T, event events.Event) models.TransactionStatus {
	t.Helper()
	var tx models.Transaction
	if err := json.Unmarshal(event.Payload, &tx); err != nil {
		t.Fatalf("Failed to decode verdict: %v", err)
	}
	return tx.Status
}

func TestOracle_ZeroThresholdApprovesEverything(t *testing.T) {
	bus := &captureBus{}
	oracle := NewOracle(bus, telemetry.New("test"), fastConfig("0"))
	handler := oracle.Handler()

	if err := handler(context.Background(), checkRequest(t, "tx1", "1000000")); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("Expected 1 verdict, got %d", len(bus.published))
	}
	if bus.published[0].Topic != events.TopicFraudResult {
		t.Errorf("Expected topic %s, got %s", events.TopicFraudResult, bus.published[0].Topic)
	}
	if got := verdictOf(t, bus.published[0]); got != models.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", got)
	}
}

func TestOracle_RejectsAboveThreshold(t *testing.T) {
	bus := &captureBus{}
	oracle := NewOracle(bus, telemetry.New("test"), fastConfig("500"))
	handler := oracle.Handler()

	ctx := context.Background()
	if err := handler(ctx, checkRequest(t, "small", "500")); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if err := handler(ctx, checkRequest(t, "large", "500.01")); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	if got := verdictOf(t, bus.published[0]); got != models.StatusApproved {
		t.Errorf("Amount at the threshold should pass, got %s", got)
	}
	if got := verdictOf(t, bus.published[1]); got != models.StatusRejected {
		t.Errorf("Amount above the threshold should be rejected, got %s", got)
	}
}

func TestOracle_PropagatesTraceParent(t *testing.T) {
	bus := &captureBus{}
	oracle := NewOracle(bus, telemetry.New("test"), fastConfig("0"))

	if err := oracle.Handler()(context.Background(), checkRequest(t, "tx1", "10")); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if bus.published[0].Headers[events.HeaderTraceParent] != "trace-abc" {
		t.Errorf("Expected inherited trace id, got %v", bus.published[0].Headers)
	}
}

func TestOracle_SkipsBadPayload(t *testing.T) {
	bus := &captureBus{}
	oracle := NewOracle(bus, telemetry.New("test"), fastConfig("0"))

	err := oracle.Handler()(context.Background(), events.Event{
		Topic: events.TopicFraudCheckRequest, Key: "tx1", Payload: []byte("garbage"),
	})
	if err != nil {
		t.Errorf("Expected bad payload to be skipped, got: %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("Verdict published for undecodable request")
	}
}

func TestOracle_CancelledContext(t *testing.T) {
	bus := &captureBus{}
	oracle := NewOracle(bus, telemetry.New("test"), models.FraudConfig{
		MinDelay: time.Second,
		MaxDelay: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := oracle.Handler()(ctx, checkRequest(t, "tx1", "10"))
	if err == nil {
		t.Error("Expected context error during screening delay")
	}
	if len(bus.published) != 0 {
		t.Errorf("Verdict published despite cancellation")
	}
}
