package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"listmgmt/internal/lists/models"
	"listmgmt/pkg/platform/sentinel"
)

const (
	defaultShards     = 8
	defaultShardDepth = 256
)

// MemoryQueue fans jobs out to a fixed set of shards. Each shard is a
// buffered channel drained by one goroutine, and a list always maps to the
// same shard, so jobs for one list run in the order they were enqueued.
type MemoryQueue struct {
	handler Handler
	logger  *slog.Logger
	shards  []chan models.Job
	depth   int

	mu     sync.RWMutex
	closed bool
}

// MemoryOption configures a MemoryQueue.
type MemoryOption func(*MemoryQueue)

func WithShards(n int) MemoryOption {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.shards = make([]chan models.Job, n)
		}
	}
}

// WithShardDepth sets how many jobs each shard buffers before Enqueue blocks.
func WithShardDepth(n int) MemoryOption {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.depth = n
		}
	}
}

func WithLogger(logger *slog.Logger) MemoryOption {
	return func(q *MemoryQueue) {
		q.logger = logger
	}
}

// NewMemory creates a queue whose workers hand jobs to handler.
func NewMemory(handler Handler, opts ...MemoryOption) *MemoryQueue {
	q := &MemoryQueue{
		handler: handler,
		logger:  slog.Default(),
		shards:  make([]chan models.Job, defaultShards),
		depth:   defaultShardDepth,
	}
	for _, opt := range opts {
		opt(q)
	}
	for i := range q.shards {
		q.shards[i] = make(chan models.Job, q.depth)
	}
	return q
}

func (q *MemoryQueue) shardFor(job models.Job) chan models.Job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(job.PartitionKey()))
	return q.shards[h.Sum32()%uint32(len(q.shards))]
}

// Enqueue buffers job on its list's shard, blocking while the shard is full
// until ctx ends.
func (q *MemoryQueue) Enqueue(ctx context.Context, job models.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("enqueue job %s: %w", job.ID, sentinel.ErrClosed)
	}
	select {
	case q.shardFor(job) <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue job %s: %w", job.ID, ctx.Err())
	}
}

// Run drains every shard until Close is called and the buffers are empty,
// or until ctx is cancelled.
func (q *MemoryQueue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, shard := range q.shards {
		g.Go(func() error {
			return q.drain(ctx, i, shard)
		})
	}
	return g.Wait()
}

func (q *MemoryQueue) drain(ctx context.Context, idx int, shard <-chan models.Job) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-shard:
			if !ok {
				return nil
			}
			// Failures are reported by the handler; the job is not retried.
			if err := q.handler.Handle(ctx, job); err != nil {
				q.logger.DebugContext(ctx, "job dropped",
					"shard", idx,
					"job_id", job.ID.String(),
					"error", err,
				)
			}
		}
	}
}

// Close stops accepting jobs. Jobs already buffered are still delivered by Run.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, shard := range q.shards {
		close(shard)
	}
}

// Pending returns the number of buffered jobs.
func (q *MemoryQueue) Pending() int {
	n := 0
	for _, shard := range q.shards {
		n += len(shard)
	}
	return n
}
