package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Subscription is a single sequential processing loop over one topic for one
// consumer group. Records within a batch are handled one at a time; slow
// handling of one record delays the rest of that batch.
type Subscription struct {
	log      *Log
	topic    string
	group    string
	stopChan chan struct{}
	doneChan chan struct{}
}

// Start launches the polling loop. The handler runs on a single goroutine.
func (s *Subscription) Start(ctx context.Context, handler Handler) {
	zap.L().Info("Starting subscription",
		zap.String("topic", s.topic),
		zap.String("group", s.group),
		zap.Duration("poll_interval", s.log.pollInterval))

	go s.pollLoop(ctx, handler)
}

// Stop terminates the loop and waits for it to drain the in-flight record.
func (s *Subscription) Stop() {
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Subscription stopped",
		zap.String("topic", s.topic),
		zap.String("group", s.group))
}

func (s *Subscription) pollLoop(ctx context.Context, handler Handler) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.log.pollInterval)
	defer ticker.Stop()

	s.poll(ctx, handler)

	for {
		select {
		case <-ticker.C:
			s.poll(ctx, handler)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll drains one bounded batch. The offset is committed after each handled
// record; a crash between handling and commit causes redelivery, so handlers
// must tolerate seeing the same record twice. A handler error is logged and
// the offset is committed anyway - one bad record never halts the loop for
// the records behind it.
func (s *Subscription) poll(ctx context.Context, handler Handler) {
	committed, err := s.log.committedOffset(ctx, s.group, s.topic)
	if err != nil {
		zap.L().Error("Failed to read committed offset",
			zap.String("topic", s.topic),
			zap.String("group", s.group),
			zap.Error(err))
		return
	}

	batch, err := s.log.fetchBatch(ctx, s.topic, committed, s.log.batchSize)
	if err != nil {
		zap.L().Error("Failed to fetch event batch",
			zap.String("topic", s.topic),
			zap.String("group", s.group),
			zap.Error(err))
		return
	}

	for _, event := range batch {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := handler(ctx, event); err != nil {
			zap.L().Error("Failed to process event",
				zap.String("topic", s.topic),
				zap.String("key", event.Key),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
		}

		if err := s.log.commitOffset(ctx, s.group, s.topic, event.Offset); err != nil {
			zap.L().Error("Failed to commit offset",
				zap.String("topic", s.topic),
				zap.String("group", s.group),
				zap.Int64("offset", event.Offset),
				zap.Error(err))
			return
		}
	}
}
