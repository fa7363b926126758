package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/policy"
	dErrors "listmgmt/pkg/domain-errors"
)

// BulkAdd adds each value independently. Permission and list resolution
// happen once and abort the call; per-value failures are collected and never
// stop the batch.
func (e *Engine) BulkAdd(ctx context.Context, listID int64, values []string, comment, author, role string) (res *models.BulkResult, err error) {
	ctx, span := e.begin(ctx, opBulkAdd, attribute.Int64("list_id", listID), attribute.Int("values", len(values)))
	defer func() {
		e.end(ctx, span, opBulkAdd, err, bulkLogAttrs(listID, len(values), author, role, res)...)
	}()

	list, err := e.prepareBulk(ctx, listID, values, role, policy.ActionBulkAdd)
	if err != nil {
		return nil, err
	}
	return e.runBulk(values, func(v string) error {
		if err := models.ValidateValue(v); err != nil {
			return err
		}
		return e.addOne(ctx, list, v, comment, author)
	}), nil
}

// BulkDelete deletes each value independently, with the same partial
// failure contract as BulkAdd.
func (e *Engine) BulkDelete(ctx context.Context, listID int64, values []string, role string) (res *models.BulkResult, err error) {
	actor := actorFrom(ctx)
	ctx, span := e.begin(ctx, opBulkDelete, attribute.Int64("list_id", listID), attribute.Int("values", len(values)))
	defer func() {
		e.end(ctx, span, opBulkDelete, err, bulkLogAttrs(listID, len(values), actor, role, res)...)
	}()

	list, err := e.prepareBulk(ctx, listID, values, role, policy.ActionBulkDelete)
	if err != nil {
		return nil, err
	}
	return e.runBulk(values, func(v string) error {
		if err := models.ValidateValue(v); err != nil {
			return err
		}
		return e.deleteOne(ctx, list, v, actor)
	}), nil
}

func (e *Engine) prepareBulk(ctx context.Context, listID int64, values []string, role string, action policy.Action) (*models.List, error) {
	if err := e.policy.CheckPermission(role, action); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "values must not be empty")
	}
	if len(values) > MaxBulkValues {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d values per bulk call", MaxBulkValues))
	}
	return e.resolveList(ctx, listID)
}

// runBulk applies fn to every value in order and reports "<value>: <code>"
// for each failure.
func (e *Engine) runBulk(values []string, fn func(string) error) *models.BulkResult {
	res := &models.BulkResult{Succeeded: make([]string, 0, len(values))}
	for _, v := range values {
		if err := fn(v); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", v, dErrors.CodeOf(err)))
			continue
		}
		res.Succeeded = append(res.Succeeded, v)
	}
	res.Status = models.StatusAllSucceeded
	if len(res.Errors) > 0 {
		res.Status = models.StatusPartialSuccess
	}
	return res
}

func bulkLogAttrs(listID int64, n int, actor, role string, res *models.BulkResult) []any {
	attrs := []any{"list_id", listID, "values", n, "actor", actor, "role", role}
	if res != nil {
		attrs = append(attrs, "succeeded", len(res.Succeeded), "failed", len(res.Errors))
	}
	return attrs
}
