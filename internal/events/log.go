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

package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fundflow-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Log must satisfy Bus.
var _ Bus = (*Log)(nil)

// Log is a durable append-log event channel backed by SQLite. Offsets are
// assigned by a single monotonically increasing rowid per database, which
// gives total order within a topic and therefore per-key order. Consumer
// groups track a committed offset per topic; anything past it is redelivered
// after a crash, which makes delivery at-least-once.
type Log struct {
	db           *sql.DB
	pollInterval time.Duration
	batchSize    int
}

const logSchema = `
	CREATE TABLE IF NOT EXISTS events (
		offset INTEGER PRIMARY KEY AUTOINCREMENT,
		topic TEXT NOT NULL,
		key TEXT NOT NULL,
		payload BLOB NOT NULL,
		headers TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_topic_offset ON events(topic, offset);

	CREATE TABLE IF NOT EXISTS consumer_offsets (
		group_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		committed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (group_id, topic)
	);
`

const (
	queryAppendEvent = `
		INSERT INTO events (topic, key, payload, headers) VALUES (?, ?, ?, ?)`

	queryFetchBatch = `
		SELECT offset, key, payload, headers
		FROM events
		WHERE topic = ? AND offset > ?
		ORDER BY offset
		LIMIT ?`

	queryGetCommitted = `
		SELECT committed FROM consumer_offsets WHERE group_id = ? AND topic = ?`

	queryCommitOffset = `
		INSERT INTO consumer_offsets (group_id, topic, committed) VALUES (?, ?, ?)
		ON CONFLICT (group_id, topic) DO UPDATE SET committed = excluded.committed`
)

func NewLog(ctx context.Context, cfg models.EventsConfig) (*Log, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("event log path cannot be empty")
	}

	zap.L().Info("Opening event log", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open event log: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping event log: %w", err)
	}

	l := newLog(db, cfg)
	if _, err := db.Exec(logSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize event log schema: %w", err)
	}
	return l, nil
}

// NewLogFromDB wraps an already-open handle and creates the schema.
// Tests use it with :memory:.
func NewLogFromDB(db *sql.DB, cfg models.EventsConfig) (*Log, error) {
	if _, err := db.Exec(logSchema); err != nil {
		return nil, fmt.Errorf("unable to initialize event log schema: %w", err)
	}
	return newLog(db, cfg), nil
}

func newLog(db *sql.DB, cfg models.EventsConfig) *Log {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Log{db: db, pollInterval: pollInterval, batchSize: batchSize}
}

func (l *Log) Close() {
	if err := l.db.Close(); err != nil {
		zap.L().Warn("Failed to close event log", zap.Error(err))
	}
}

// Publish appends one event and returns its assigned offset.
func (l *Log) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) (*PublishResult, error) {
	if topic == "" || key == "" {
		return nil, errors.New("topic and key are required")
	}
	if headers == nil {
		headers = map[string]string{}
	}

	headersJson, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode headers: %w", err)
	}

	result, err := l.db.ExecContext(ctx, queryAppendEvent, topic, key, payload, string(headersJson))
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	offset, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read assigned offset: %w", err)
	}

	zap.L().Debug("Event published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int64("offset", offset))

	return &PublishResult{Topic: topic, Key: key, Offset: offset}, nil
}

// Subscribe creates a sequential consumer handle for one topic and group.
func (l *Log) Subscribe(topic, group string) (*Subscription, error) {
	if topic == "" || group == "" {
		return nil, errors.New("topic and group are required")
	}
	return &Subscription{
		log:      l,
		topic:    topic,
		group:    group,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (l *Log) committedOffset(ctx context.Context, group, topic string) (int64, error) {
	var committed int64
	err := l.db.QueryRowContext(ctx, queryGetCommitted, group, topic).Scan(&committed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read committed offset: %w", err)
	}
	return committed, nil
}

func (l *Log) commitOffset(ctx context.Context, group, topic string, offset int64) error {
	if _, err := l.db.ExecContext(ctx, queryCommitOffset, group, topic, offset); err != nil {
		return fmt.Errorf("failed to commit offset: %w", err)
	}
	return nil
}

func (l *Log) fetchBatch(ctx context.Context, topic string, after int64, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, queryFetchBatch, topic, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var batch []Event
	for rows.Next() {
		ev := Event{Topic: topic}
		var headersJson string
		if err := rows.Scan(&ev.Offset, &ev.Key, &ev.Payload, &headersJson); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(headersJson), &ev.Headers); err != nil {
			// A corrupt header blob must not poison the record itself.
			zap.L().Warn("Failed to decode event headers",
				zap.Int64("offset", ev.Offset), zap.Error(err))
			ev.Headers = map[string]string{}
		}
		batch = append(batch, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return batch, nil
}
