package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultBufferCapacity = 10000
	defaultFlushInterval  = 200 * time.Millisecond
	defaultBatchSize      = 100
)

var ErrBufferClosed = errors.New("audit buffer closed")

// BufferedPublisher decouples request latency from a slow sink. Emit enqueues
// into a bounded ring; when full the oldest event is dropped. Run drains the
// ring into the sink until its context ends.
type BufferedPublisher struct {
	sink   Publisher
	logger *slog.Logger

	mu      sync.Mutex
	events  []Event
	head    int // next write position
	tail    int // next read position
	count   int
	dropped int64
	closed  bool

	notify   chan struct{}
	interval time.Duration
	batch    int
}

// BufferOption configures a BufferedPublisher.
type BufferOption func(*BufferedPublisher)

func WithFlushInterval(d time.Duration) BufferOption {
	return func(b *BufferedPublisher) {
		if d > 0 {
			b.interval = d
		}
	}
}

func WithBatchSize(n int) BufferOption {
	return func(b *BufferedPublisher) {
		if n > 0 {
			b.batch = n
		}
	}
}

func WithBufferLogger(logger *slog.Logger) BufferOption {
	return func(b *BufferedPublisher) {
		b.logger = logger
	}
}

func NewBufferedPublisher(sink Publisher, capacity int, opts ...BufferOption) *BufferedPublisher {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	b := &BufferedPublisher{
		sink:     sink,
		logger:   slog.Default(),
		events:   make([]Event, capacity),
		notify:   make(chan struct{}, 1),
		interval: defaultFlushInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BufferedPublisher) Emit(_ context.Context, event Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBufferClosed
	}
	capacity := len(b.events)
	if b.count == capacity {
		b.tail = (b.tail + 1) % capacity
		b.count--
		b.dropped++
	}
	b.events[b.head] = event
	b.head = (b.head + 1) % capacity
	b.count++
	full := b.count >= b.batch
	b.mu.Unlock()

	if full {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *BufferedPublisher) dequeue(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = b.events[b.tail]
		b.events[b.tail] = Event{}
		b.tail = (b.tail + 1) % len(b.events)
	}
	b.count -= n
	return out
}

// Len returns the number of queued events.
func (b *BufferedPublisher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns how many events were discarded because the ring was full.
func (b *BufferedPublisher) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Run flushes until ctx is done, then drains whatever is left.
func (b *BufferedPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.Flush(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			b.Flush(ctx)
		case <-b.notify:
			b.Flush(ctx)
		}
	}
}

// Flush sends every queued event to the sink. Events the sink rejects are
// logged and discarded.
func (b *BufferedPublisher) Flush(ctx context.Context) {
	for {
		events := b.dequeue(b.batch)
		if len(events) == 0 {
			return
		}
		for _, event := range events {
			if err := b.sink.Emit(ctx, event); err != nil {
				b.logger.WarnContext(ctx, "audit sink rejected event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}

// Close stops accepting events, drains the ring, and closes the sink.
func (b *BufferedPublisher) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Flush(context.Background())
	return b.sink.Close()
}
