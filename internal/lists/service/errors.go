package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "listmgmt/pkg/domain-errors"
	"listmgmt/pkg/platform/sentinel"
)

// cacheError reports any cache failure as Unavailable: the cache is on the
// critical path of every read and mutation.
func cacheError(err error, op string) error {
	return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("cache unavailable during %s", op))
}

// storeError maps durable store failures onto the taxonomy.
func storeError(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg+": not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.Wrap(err, dErrors.CodeDuplicate, msg+": already exists")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg+": storage conflict")
	case isUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+": store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

// enqueueError maps queue failures. A full or closed queue, a broker
// outage and a timeout all mean the write cannot be accepted right now.
func enqueueError(err error) error {
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "durability queue unavailable")
}

func isUnavailable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable) ||
		errors.Is(err, sentinel.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// begin opens a span for an engine operation.
func (e *Engine) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "lists."+op, trace.WithAttributes(attrs...))
}

// end records the outcome of op on the span, in metrics and in the log.
// Rejections of caller input are logged at warn, infrastructure failures at
// error, successful mutations at info.
func (e *Engine) end(ctx context.Context, span trace.Span, op string, err error, logAttrs ...any) {
	defer span.End()

	code := dErrors.CodeOf(err)
	e.metrics.Mutation(op, string(code))
	logAttrs = append(logAttrs, "operation", op)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		if op == opCheck || op == opGetList || op == opListItems {
			e.logger.DebugContext(ctx, "lists operation succeeded", logAttrs...)
			return
		}
		e.logger.InfoContext(ctx, "lists operation succeeded", logAttrs...)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	logAttrs = append(logAttrs, "code", string(code), "error", err)
	switch code {
	case dErrors.CodeUnavailable, dErrors.CodeInternal, dErrors.CodeConflict:
		e.logger.ErrorContext(ctx, "lists operation failed", logAttrs...)
	default:
		e.logger.WarnContext(ctx, "lists operation rejected", logAttrs...)
	}
}

const (
	opCheck      = "check"
	opAdd        = "add"
	opEdit       = "edit"
	opDelete     = "delete"
	opChangeType = "change_type"
	opBulkAdd    = "bulk_add"
	opBulkDelete = "bulk_delete"
	opCreateList = "create_list"
	opDeleteList = "delete_list"
	opGetList    = "get_list"
	opListItems  = "list_items"
)
