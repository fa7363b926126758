package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/lists/store"
	"listmgmt/internal/platform/metrics"
	dErrors "listmgmt/pkg/domain-errors"
	"listmgmt/pkg/platform/sentinel"
)

const (
	defaultApplyTimeout  = 5 * time.Second
	defaultRepairTimeout = 250 * time.Millisecond
)

// Store is the transactional surface the worker needs.
type Store interface {
	RunInTx(ctx context.Context, fn store.TxFunc) error
	FindList(ctx context.Context, listID int64) (*models.List, error)
}

// KeyInvalidator drops lookaside cache keys.
type KeyInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// Worker applies durability jobs to the store, one transaction per job.
type Worker struct {
	store   Store
	keys    KeyInvalidator
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithKeyInvalidator lets the worker drop the cache keys of a job that was
// dropped, or whose list changed type while the job was queued, so reads fall
// back to the durable store.
func WithKeyInvalidator(k KeyInvalidator) WorkerOption {
	return func(w *Worker) {
		w.keys = k
	}
}

// WithApplyTimeout bounds each job's transaction.
func WithApplyTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func NewWorker(st Store, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:   st,
		logger:  slog.Default(),
		timeout: defaultApplyTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle applies job and logs the outcome. A failed job is reported and
// dropped; the returned error carries a domain code for the caller's logs.
// With a KeyInvalidator configured, a dropped job's cache keys are removed so
// the cache stops answering for a mutation that never became durable.
func (w *Worker) Handle(ctx context.Context, job models.Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.store.RunInTx(ctx, func(ctx context.Context, tx store.ItemWriter) error {
		return apply(ctx, tx, job)
	})
	attrs := []any{
		"job_id", job.ID.String(),
		"list_id", job.ListID,
		"action", string(job.Action),
		"value", job.Value,
		"actor", job.Actor,
		"queued_for", time.Since(job.EnqueuedAt).String(),
	}
	if job.Action == models.ActionEdit {
		attrs = append(attrs, "old_value", job.OldValue)
	}
	if err != nil {
		err = classify(job, err)
		w.metrics.JobFailed(string(job.Action))
		w.logger.ErrorContext(ctx, "durability job failed, dropping",
			append(attrs, "code", string(dErrors.CodeOf(err)), "error", err)...)
		w.invalidate(ctx, job, "dropped")
		return err
	}
	w.metrics.JobApplied(string(job.Action))
	w.logger.InfoContext(ctx, "durability job applied", attrs...)
	if job.Action != models.ActionDelete {
		w.dropRetyped(ctx, job)
	}
	return nil
}

// dropRetyped removes the keys an add or edit claimed under the list's old
// type when the list changed type while the job was queued. The type change
// only invalidated the items that were durable at the time.
func (w *Worker) dropRetyped(ctx context.Context, job models.Job) {
	if w.keys == nil || job.ListType == "" {
		return
	}
	list, err := w.store.FindList(ctx, job.ListID)
	if err != nil {
		w.logger.WarnContext(ctx, "list lookup after apply failed", "list_id", job.ListID, "error", err)
		return
	}
	if list.Type != job.ListType {
		w.invalidate(ctx, job, "retyped")
	}
}

// invalidate drops the job's keys under the type it was enqueued with.
func (w *Worker) invalidate(ctx context.Context, job models.Job, reason string) {
	if w.keys == nil || job.ListType == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultRepairTimeout)
	defer cancel()
	keys := job.CacheKeys(job.ListType)
	if err := w.keys.Delete(cctx, keys...); err != nil {
		w.logger.ErrorContext(ctx, "cache repair failed", "job_id", job.ID.String(), "keys", keys, "reason", reason, "error", err)
		return
	}
	w.logger.InfoContext(ctx, "cache keys repaired", "job_id", job.ID.String(), "keys", keys, "reason", reason)
}

func apply(ctx context.Context, tx store.ItemWriter, job models.Job) error {
	switch job.Action {
	case models.ActionAdd:
		return tx.AddItem(ctx, job.ListID, job.Value, job.Comment, job.Actor)
	case models.ActionEdit:
		return tx.UpdateItem(ctx, job.ListID, job.OldValue, job.Value, job.Comment, job.Actor)
	case models.ActionDelete:
		return tx.SoftDeleteItem(ctx, job.ListID, job.Value, job.Actor)
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown job action %q", job.Action))
	}
}

// classify maps store failures onto the domain taxonomy. A job whose target
// row or list vanished, or whose value already exists, means cache and store
// diverged.
func classify(job models.Job, err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound),
		errors.Is(err, sentinel.ErrAlreadyExists),
		errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("%s job for list %d conflicts with durable state", job.Action, job.ListID))
	case errors.Is(err, sentinel.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "durable store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "apply durability job")
	}
}
