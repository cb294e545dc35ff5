package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"
)

// Telemetry is an explicit observability context. Each process constructs one
// and passes it into its components; nothing here is a package-level global.
type Telemetry struct {
	service string

	mu       sync.RWMutex
	counters map[string]*atomic.Int64

	durMu     sync.Mutex
	durations map[string]*durationStat
}

type durationStat struct {
	count int64
	total time.Duration
	max   time.Duration
}

// DurationSnapshot summarizes recorded durations for one name.
type DurationSnapshot struct {
	Count int64
	Total time.Duration
	Max   time.Duration
}

func New(service string) *Telemetry {
	return &Telemetry{
		service:   service,
		counters:  make(map[string]*atomic.Int64),
		durations: make(map[string]*durationStat),
	}
}

func (t *Telemetry) Service() string { return t.service }

// Count increments the named counter by delta.
func (t *Telemetry) Count(name string, delta int64) {
	t.mu.RLock()
	c, ok := t.counters[name]
	t.mu.RUnlock()
	if !ok {
		t.mu.Lock()
		if c, ok = t.counters[name]; !ok {
			c = &atomic.Int64{}
			t.counters[name] = c
		}
		t.mu.Unlock()
	}
	c.Add(delta)
}

// Counter returns the current value of the named counter.
func (t *Telemetry) Counter(name string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.counters[name]; ok {
		return c.Load()
	}
	return 0
}

// Record adds one observation to the named duration series.
func (t *Telemetry) Record(name string, d time.Duration) {
	t.durMu.Lock()
	defer t.durMu.Unlock()
	s, ok := t.durations[name]
	if !ok {
		s = &durationStat{}
		t.durations[name] = s
	}
	s.count++
	s.total += d
	if d > s.max {
		s.max = d
	}
}

// Duration returns a snapshot of the named duration series.
func (t *Telemetry) Duration(name string) DurationSnapshot {
	t.durMu.Lock()
	defer t.durMu.Unlock()
	if s, ok := t.durations[name]; ok {
		return DurationSnapshot{Count: s.count, Total: s.total, Max: s.max}
	}
	return DurationSnapshot{}
}

// Span is a correlation handle. Its id travels in event headers so consumers
// can tie their log lines back to the producing operation.
type Span struct {
	telemetry *Telemetry
	name      string
	traceId   string
	start     time.Time
}

// StartSpan opens a span with a fresh trace id.
func (t *Telemetry) StartSpan(name string) *Span {
	return &Span{telemetry: t, name: name, traceId: newTraceId(), start: time.Now()}
}

// ContinueSpan opens a span that keeps an inherited trace id. An empty id
// falls back to a fresh one.
func (t *Telemetry) ContinueSpan(name, traceId string) *Span {
	if traceId == "" {
		traceId = newTraceId()
	}
	return &Span{telemetry: t, name: name, traceId: traceId, start: time.Now()}
}

func (s *Span) TraceId() string { return s.traceId }

// End records the span duration under its name.
func (s *Span) End() {
	s.telemetry.Record(s.name, time.Since(s.start))
}

func newTraceId() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Timestamp fallback keeps ids unique enough for correlation.
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))
	}
	return hex.EncodeToString(b[:])
}
