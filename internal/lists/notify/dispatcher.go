package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"listmgmt/internal/platform/metrics"
)

const (
	defaultBufferSize  = 128
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher decouples callers from a Sink. Notify only buffers the message;
// when the buffer is full the message is dropped and counted.
type Dispatcher struct {
	sink        Sink
	logger      *slog.Logger
	metrics     *metrics.Metrics
	sendTimeout time.Duration
	inbox       chan string

	mu     sync.RWMutex
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithBufferSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inbox = make(chan string, n)
		}
	}
}

func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:        sink,
		logger:      slog.Default(),
		sendTimeout: defaultSendTimeout,
		inbox:       make(chan string, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify queues message for delivery and always returns nil.
func (d *Dispatcher) Notify(ctx context.Context, message string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.Notification("dropped")
		return nil
	}
	select {
	case d.inbox <- message:
	default:
		d.metrics.Notification("dropped")
		d.logger.WarnContext(ctx, "notification buffer full, dropping message", "message", message)
	}
	return nil
}

// Run delivers queued messages until Close drains the buffer or ctx ends.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-d.inbox:
			if !ok {
				return nil
			}
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg string) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	if err := d.sink.Notify(sendCtx, msg); err != nil {
		d.metrics.Notification("failed")
		d.logger.ErrorContext(ctx, "notification delivery failed", "error", err)
		return
	}
	d.metrics.Notification("sent")
}

// Close stops accepting messages; Run returns once the buffer is drained.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.inbox)
}
