package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/policy"
	dErrors "listmgmt/pkg/domain-errors"
	"listmgmt/pkg/requestcontext"
)

// AddValue makes value visible in the list's cache namespace and enqueues
// its durable insert.
func (e *Engine) AddValue(ctx context.Context, listID int64, value, comment, author, role string) (res *models.MutationResult, err error) {
	ctx, span := e.begin(ctx, opAdd, attribute.Int64("list_id", listID))
	defer func() {
		e.end(ctx, span, opAdd, err, "list_id", listID, "value", value, "actor", author, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionAdd); err != nil {
		return nil, err
	}
	list, err := e.resolveList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateValue(value); err != nil {
		return nil, err
	}
	if err := e.addOne(ctx, list, value, comment, author); err != nil {
		return nil, err
	}
	return &models.MutationResult{Status: models.StatusAdded}, nil
}

// addOne runs the duplicate check, claims the key and enqueues the job.
// The caller has already authorized and validated.
func (e *Engine) addOne(ctx context.Context, list *models.List, value, comment, author string) error {
	key := models.CacheKey(list.Type, value)

	exists, prior, err := e.valueState(ctx, list.Type, value)
	if err != nil {
		return err
	}
	if exists {
		return e.duplicate(ctx, list, value, author)
	}

	claimed, err := e.claim(ctx, key)
	if err != nil {
		return err
	}
	if !claimed {
		return e.duplicate(ctx, list, value, author)
	}

	job := e.newJob(ctx, list, models.ActionAdd, value, "", comment, author)
	if err := e.enqueue(ctx, job); err != nil {
		e.revert(ctx, key, prior)
		return err
	}
	return nil
}

// EditValue renames oldValue to newValue. The old key is tombstoned so a
// pending durable state cannot be backfilled over the rename.
func (e *Engine) EditValue(ctx context.Context, listID int64, oldValue, newValue, comment, author, role string) (res *models.MutationResult, err error) {
	ctx, span := e.begin(ctx, opEdit, attribute.Int64("list_id", listID))
	defer func() {
		e.end(ctx, span, opEdit, err, "list_id", listID, "old_value", oldValue, "value", newValue, "actor", author, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionEdit); err != nil {
		return nil, err
	}
	list, err := e.resolveList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateValue(oldValue); err != nil {
		return nil, err
	}
	if err := models.ValidateValue(newValue); err != nil {
		return nil, err
	}
	if oldValue == newValue {
		return nil, dErrors.New(dErrors.CodeValidation, "new value must differ from the old value")
	}

	oldIn, oldShared, err := e.membership(ctx, list, oldValue)
	if err != nil {
		return nil, err
	}
	if !oldIn {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("value %q not found in list %d", oldValue, listID))
	}

	newExists, newPrior, err := e.valueState(ctx, list.Type, newValue)
	if err != nil {
		return nil, err
	}
	if newExists {
		return nil, e.duplicate(ctx, list, newValue, author)
	}

	newKey := models.CacheKey(list.Type, newValue)
	oldKey := models.CacheKey(list.Type, oldValue)

	claimed, err := e.claim(ctx, newKey)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, e.duplicate(ctx, list, newValue, author)
	}

	// The old key stays present while another list of the type holds it.
	oldPrior := models.CachePresent
	if !oldShared {
		oldPrior, err = e.tombstone(ctx, oldKey)
		if err != nil {
			e.revert(ctx, newKey, newPrior)
			return nil, err
		}
		if oldPrior == models.CacheTombstone {
			// A concurrent delete or edit removed the old value first.
			e.revert(ctx, newKey, newPrior)
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("value %q not found in list %d", oldValue, listID))
		}
	}

	job := e.newJob(ctx, list, models.ActionEdit, newValue, oldValue, comment, author)
	if err := e.enqueue(ctx, job); err != nil {
		e.revert(ctx, newKey, newPrior)
		if !oldShared {
			e.revert(ctx, oldKey, oldPrior)
		}
		return nil, err
	}
	return &models.MutationResult{Status: models.StatusEdited}, nil
}

// DeleteValue tombstones value and enqueues its durable soft-delete. The
// acting identity is taken from the request context.
func (e *Engine) DeleteValue(ctx context.Context, listID int64, value, role string) (res *models.MutationResult, err error) {
	actor := actorFrom(ctx)
	ctx, span := e.begin(ctx, opDelete, attribute.Int64("list_id", listID))
	defer func() {
		e.end(ctx, span, opDelete, err, "list_id", listID, "value", value, "actor", actor, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionDelete); err != nil {
		return nil, err
	}
	list, err := e.resolveList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateValue(value); err != nil {
		return nil, err
	}
	if err := e.deleteOne(ctx, list, value, actor); err != nil {
		return nil, err
	}
	return &models.MutationResult{Status: models.StatusDeleted}, nil
}

func (e *Engine) deleteOne(ctx context.Context, list *models.List, value, actor string) error {
	inList, shared, err := e.membership(ctx, list, value)
	if err != nil {
		return err
	}
	if !inList {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("value %q not found in list %d", value, list.ID))
	}

	job := e.newJob(ctx, list, models.ActionDelete, value, "", "", actor)
	if shared {
		// Another list of the type keeps the value live, so no tombstone.
		return e.enqueue(ctx, job)
	}

	key := models.CacheKey(list.Type, value)
	prior, err := e.tombstone(ctx, key)
	if err != nil {
		return err
	}
	if prior == models.CacheTombstone {
		// Lost the race against a concurrent delete of the same value.
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("value %q not found in list %d", value, list.ID))
	}

	if err := e.enqueue(ctx, job); err != nil {
		e.revert(ctx, key, prior)
		return err
	}
	return nil
}

// ChangeListType retags a list and drops every cache key of its items under
// the old type. Setting the current type again is a no-op.
func (e *Engine) ChangeListType(ctx context.Context, listID int64, newType, role string) (res *models.MutationResult, err error) {
	ctx, span := e.begin(ctx, opChangeType, attribute.Int64("list_id", listID), attribute.String("new_type", newType))
	defer func() {
		e.end(ctx, span, opChangeType, err, "list_id", listID, "new_type", newType, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionChangeType); err != nil {
		return nil, err
	}
	if err := models.ValidateListType(newType); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	oldType, err := e.store.UpdateListType(sctx, listID, newType)
	cancel()
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("change type of list %d", listID))
	}
	if oldType != newType {
		if err := e.invalidateList(ctx, listID, oldType); err != nil {
			return nil, err
		}
	}
	return &models.MutationResult{Status: models.StatusTypeChanged}, nil
}

// invalidateList deletes the cache keys of every live item of a list under
// listType, a batch at a time.
func (e *Engine) invalidateList(ctx context.Context, listID int64, listType string) error {
	total := 0
	err := e.store.ForEachItemBatch(ctx, listID, invalidateBatchSize, func(values []string) error {
		keys := make([]string, len(values))
		for i, v := range values {
			keys[i] = models.CacheKey(listType, v)
		}
		cctx, cancel := context.WithTimeout(ctx, e.timeouts.Cache)
		defer cancel()
		if err := e.cache.Delete(cctx, keys...); err != nil {
			return cacheError(err, "invalidation")
		}
		total += len(keys)
		return nil
	})
	e.metrics.KeysInvalidated(total)
	if err != nil {
		return storeError(err, fmt.Sprintf("invalidate cache of list %d", listID))
	}
	e.logger.InfoContext(ctx, "list cache invalidated", "list_id", listID, "list_type", listType, "keys", total)
	return nil
}

// CreateList creates an empty list.
func (e *Engine) CreateList(ctx context.Context, name, listType, role string) (list *models.List, err error) {
	ctx, span := e.begin(ctx, opCreateList, attribute.String("list_type", listType))
	defer func() {
		e.end(ctx, span, opCreateList, err, "name", name, "list_type", listType, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionManageLists); err != nil {
		return nil, err
	}
	if err := models.ValidateListName(name); err != nil {
		return nil, err
	}
	if err := models.ValidateListType(listType); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	defer cancel()
	list, err = e.store.CreateList(sctx, name, listType)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("create list %q", name))
	}
	return list, nil
}

// DeleteList soft-deletes a list and drops the cache keys of its items.
func (e *Engine) DeleteList(ctx context.Context, listID int64, role string) (res *models.MutationResult, err error) {
	ctx, span := e.begin(ctx, opDeleteList, attribute.Int64("list_id", listID))
	defer func() { e.end(ctx, span, opDeleteList, err, "list_id", listID, "role", role) }()

	if err := e.policy.CheckPermission(role, policy.ActionManageLists); err != nil {
		return nil, err
	}
	list, err := e.resolveList(ctx, listID)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	err = e.store.SoftDeleteList(sctx, listID)
	cancel()
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("delete list %d", listID))
	}
	if err := e.invalidateList(ctx, listID, list.Type); err != nil {
		return nil, err
	}
	return &models.MutationResult{Status: models.StatusDeleted}, nil
}

func (e *Engine) claim(ctx context.Context, key string) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeouts.Cache)
	defer cancel()
	ok, err := e.cache.Claim(cctx, key)
	if err != nil {
		return false, cacheError(err, "claim")
	}
	return ok, nil
}

func (e *Engine) tombstone(ctx context.Context, key string) (models.CacheState, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeouts.Cache)
	defer cancel()
	prior, err := e.cache.Tombstone(cctx, key)
	if err != nil {
		return prior, cacheError(err, "tombstone")
	}
	return prior, nil
}

func (e *Engine) newJob(ctx context.Context, list *models.List, action models.Action, value, oldValue, comment, actor string) models.Job {
	job := models.NewJob(list.ID, action, value, oldValue, comment, actor, requestcontext.Now(ctx))
	job.ListType = list.Type
	return job
}

func (e *Engine) enqueue(ctx context.Context, job models.Job) error {
	qctx, cancel := context.WithTimeout(ctx, e.timeouts.Enqueue)
	defer cancel()
	start := time.Now()
	if err := e.queue.Enqueue(qctx, job); err != nil {
		return enqueueError(err)
	}
	e.metrics.JobEnqueued(string(job.Action), time.Since(start))
	return nil
}

// revert puts key back into prior after a failed mutation. Best effort: a
// failure leaves the cache ahead of the store and is logged.
func (e *Engine) revert(ctx context.Context, key string, prior models.CacheState) {
	// The caller's deadline may have expired; compensation still gets a slot.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeouts.Cache)
	defer cancel()

	var err error
	switch prior {
	case models.CachePresent:
		err = e.cache.Restore(cctx, key)
	case models.CacheTombstone:
		_, err = e.cache.Tombstone(cctx, key)
	default:
		err = e.cache.Delete(cctx, key)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "cache compensation failed", "key", key, "restore_to", prior.String(), "error", err)
	}
}

// duplicate builds the Duplicate error and alerts operators.
func (e *Engine) duplicate(ctx context.Context, list *models.List, value, author string) error {
	if e.notifier != nil {
		msg := fmt.Sprintf("Duplicate add attempt: value %q already exists in %s list %q (id %d), attempted by %s",
			value, list.Type, list.Name, list.ID, author)
		if err := e.notifier.Notify(ctx, msg); err != nil {
			e.logger.WarnContext(ctx, "duplicate notification failed", "list_id", list.ID, "error", err)
		}
	}
	return dErrors.New(dErrors.CodeDuplicate, fmt.Sprintf("value %q already exists in list %d", value, list.ID))
}

func actorFrom(ctx context.Context) string {
	if id := requestcontext.Identity(ctx); id != "" {
		return id
	}
	return "system"
}
