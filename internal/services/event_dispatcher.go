package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"payboard/internal/core"
	"payboard/internal/metrics"
)

const (
	DefaultEventBuffer  = 64
	eventPublishTimeout = 15 * time.Second
)

var (
	ErrEventQueueFull   = errors.New("record event queue is full")
	ErrDispatcherClosed = errors.New("record event dispatcher is closed")
)

type recordEvent struct {
	seq    int
	record core.Record
}

// EventDispatcher hands record events to a publisher from a single
// background goroutine. Enqueueing never blocks: when the buffer is full
// the event is dropped and counted.
type EventDispatcher struct {
	publisher EventPublisher
	timeout   time.Duration
	events    chan recordEvent
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewEventDispatcher starts the delivery goroutine. buffer values below 1
// fall back to DefaultEventBuffer.
func NewEventDispatcher(p EventPublisher, buffer int) *EventDispatcher {
	if buffer < 1 {
		buffer = DefaultEventBuffer
	}
	d := &EventDispatcher{
		publisher: p,
		timeout:   eventPublishTimeout,
		events:    make(chan recordEvent, buffer),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// PublishRecordAppended queues the event and returns immediately.
func (d *EventDispatcher) PublishRecordAppended(_ context.Context, seq int, r core.Record) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.RecordEventDropped()
		return ErrDispatcherClosed
	}
	select {
	case d.events <- recordEvent{seq: seq, record: r}:
		return nil
	default:
		metrics.RecordEventDropped()
		return fmt.Errorf("record %d: %w", seq, ErrEventQueueFull)
	}
}

func (d *EventDispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.publisher.PublishRecordAppended(ctx, ev.seq, ev.record)
		cancel()

		metrics.RecordEventPublished(err)
		if err != nil {
			slog.Error("Failed to publish record appended event",
				"sequence", ev.seq, "month", ev.record.Month, "error", err)
		}
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end.
func (d *EventDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain record events: %w", ctx.Err())
	}
}
