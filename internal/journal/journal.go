// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package journal records auth-state events to a JSONL file or a Postgres
// table. Entries carry who and when, never tokens.
package journal

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/xdg"
)

// DefaultFileName is the journal file used when no target is given.
const DefaultFileName = "events.jsonl"

// writeTimeout bounds a single journal write.
const writeTimeout = 5 * time.Second

// Entry is one recorded auth event.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	UserID   string    `json:"user_id,omitempty"`
	Email    string    `json:"email,omitempty"`
	Endpoint string    `json:"endpoint"`
}

// NewEntry builds an entry for ev. sess may be nil.
func NewEntry(ev auth.Event, sess *auth.Session, endpoint string, now time.Time) Entry {
	e := Entry{
		ID:       uuid.NewString(),
		Time:     now.UTC(),
		Event:    string(ev),
		Endpoint: endpoint,
	}
	if u := auth.UserOf(sess); u != nil {
		e.UserID = u.ID
		e.Email = u.Email
	}
	return e
}

// Sink stores journal entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
	Close() error
}

// Open returns the sink for target: a postgres:// or postgresql:// DSN
// selects the Postgres sink, anything else is a file path. An empty target
// means events.jsonl in the state directory.
func Open(ctx context.Context, target string) (Sink, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if t.Kind == TargetPostgres {
		return NewPostgresSink(ctx, t.Location)
	}
	path := t.Location
	if path == "" {
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, DefaultFileName)
	}
	return NewFileSink(path)
}

// Queue decouples event listeners from sink I/O: listeners enqueue entries
// and Run writes them out on its own goroutine.
type Queue struct {
	sink    Sink
	entries chan Entry
	now     func() time.Time
}

// NewQueue returns a queue holding up to size pending entries.
func NewQueue(sink Sink, size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{sink: sink, entries: make(chan Entry, size), now: time.Now}
}

// Listener returns an auth listener that enqueues every event for endpoint.
// It never blocks; when the queue is full the entry is dropped and logged.
func (q *Queue) Listener(endpoint string) auth.Listener {
	return func(ev auth.Event, sess *auth.Session) {
		e := NewEntry(ev, sess, endpoint, q.now())
		select {
		case q.entries <- e:
		default:
			log.Warnf("journal queue full, dropping %s event", e.Event)
		}
	}
}

// Run writes queued entries until ctx is done, then drains what is left.
// Write failures are logged and do not stop the loop.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case e := <-q.entries:
			q.write(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-q.entries:
					q.write(context.Background(), e)
				default:
					return nil
				}
			}
		}
	}
}

func (q *Queue) write(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := q.sink.Write(ctx, e); err != nil {
		log.Warnf("journal write failed: %v", err)
	}
}
