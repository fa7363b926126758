// Package service implements the list value management engine.
//
// Reads are cache-aside: the cache answers when it can and the durable store
// is consulted on a miss, after which the cache is backfilled. Writes are
// write-behind: the cache is updated synchronously, a durability job is
// enqueued, and the call returns before the job is applied. A caller that
// sees success can rely on the value being visible to concurrent CheckValue
// calls; the durable store catches up when the job runs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/platform/metrics"
	"listmgmt/internal/policy"
)

// Cache is the lookaside cache. Every method is atomic per key.
type Cache interface {
	Lookup(ctx context.Context, key string) (models.CacheState, error)
	// Claim marks key present unless it already is; true means this call set it.
	Claim(ctx context.Context, key string) (bool, error)
	// Backfill marks key present only when the cache has no entry for it.
	Backfill(ctx context.Context, key string) error
	// Tombstone marks key removed and returns the state it held before.
	Tombstone(ctx context.Context, key string) (models.CacheState, error)
	Restore(ctx context.Context, key string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store is the durable system of record.
type Store interface {
	CreateList(ctx context.Context, name, listType string) (*models.List, error)
	FindList(ctx context.Context, listID int64) (*models.List, error)
	SoftDeleteList(ctx context.Context, listID int64) error
	UpdateListType(ctx context.Context, listID int64, newType string) (string, error)
	ValueExists(ctx context.Context, listType, value string) (bool, error)
	// ListsContaining returns the live lists of listType holding value.
	ListsContaining(ctx context.Context, listType, value string) ([]int64, error)
	ListItems(ctx context.Context, listID int64, page models.Page) (*models.ItemPage, error)
	ForEachItemBatch(ctx context.Context, listID int64, batchSize int, fn func([]string) error) error
}

// Queue accepts durability jobs.
type Queue interface {
	Enqueue(ctx context.Context, job models.Job) error
}

// Notifier receives operator alerts. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Authorizer decides whether a role may perform an action.
type Authorizer interface {
	CheckPermission(role string, action policy.Action) error
}

// Timeouts bound each kind of collaborator call.
type Timeouts struct {
	Cache   time.Duration
	Store   time.Duration
	Enqueue time.Duration
}

// DefaultTimeouts returns the production defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Cache:   250 * time.Millisecond,
		Store:   2 * time.Second,
		Enqueue: time.Second,
	}
}

const (
	// MaxBulkValues caps the number of values in one bulk call.
	MaxBulkValues = 1000

	invalidateBatchSize = 500
)

// Engine orchestrates permission checks, validation, the cache and the
// durability queue. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cache    Cache
	store    Store
	queue    Queue
	policy   Authorizer
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	timeouts Timeouts

	lookups singleflight.Group
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithTimeouts overrides the non-zero fields of t.
func WithTimeouts(t Timeouts) Option {
	return func(e *Engine) {
		if t.Cache > 0 {
			e.timeouts.Cache = t.Cache
		}
		if t.Store > 0 {
			e.timeouts.Store = t.Store
		}
		if t.Enqueue > 0 {
			e.timeouts.Enqueue = t.Enqueue
		}
	}
}

// New constructs an Engine.
func New(cache Cache, store Store, queue Queue, authz Authorizer, opts ...Option) (*Engine, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if queue == nil {
		return nil, errors.New("queue is required")
	}
	if authz == nil {
		return nil, errors.New("policy is required")
	}
	e := &Engine{
		cache:    cache,
		store:    store,
		queue:    queue,
		policy:   authz,
		logger:   slog.Default(),
		tracer:   otel.Tracer("listmgmt/lists"),
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}
