package events

import "context"

// Topics used by the transaction saga. Both are keyed by transaction id, so
// all events for one transaction are strictly ordered relative to each other.
const (
	TopicFraudCheckRequest = "fraud-check-request"
	TopicFraudResult       = "fraud-result"
)

// HeaderTraceParent carries the producing operation's trace id for
// downstream log correlation. Consumers never depend on it for correctness.
const HeaderTraceParent = "traceparent"

// Event is one record on a topic.
type Event struct {
	Topic   string
	Key     string
	Payload []byte
	Headers map[string]string
	Offset  int64
}

// PublishResult reports where a published event landed. Publish has no
// callback: callers get the result (or the error) synchronously and own the
// drop decision.
type PublishResult struct {
	Topic  string
	Key    string
	Offset int64
}

// Handler processes one event. Errors are logged by the subscription and the
// record is not redelivered for them; at-least-once redelivery covers crashes
// before the offset commit, so handlers must stay idempotent.
type Handler func(ctx context.Context, event Event) error

// Bus is a durable, per-key-ordered, at-least-once event channel.
type Bus interface {
	Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) (*PublishResult, error)
	Subscribe(topic, group string) (*Subscription, error)
	Close()
}
