package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/policy"
)

// CheckValue reports whether value is a live member of any list of listType.
// A tombstoned key answers false without touching the durable store.
func (e *Engine) CheckValue(ctx context.Context, listType, value, role string) (exists bool, err error) {
	ctx, span := e.begin(ctx, opCheck, attribute.String("list_type", listType))
	defer func() {
		e.end(ctx, span, opCheck, err, "list_type", listType, "value", value, "role", role)
	}()

	if err := e.policy.CheckPermission(role, policy.ActionView); err != nil {
		return false, err
	}
	if err := models.ValidateListType(listType); err != nil {
		return false, err
	}
	if err := models.ValidateValue(value); err != nil {
		return false, err
	}

	key := models.CacheKey(listType, value)
	state, err := e.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	switch state {
	case models.CachePresent:
		e.metrics.CacheLookup("hit")
		return true, nil
	case models.CacheTombstone:
		e.metrics.CacheLookup("tombstone")
		return false, nil
	}
	e.metrics.CacheLookup("miss")

	// Concurrent misses on one key share a single durable lookup. It runs
	// detached from this caller so a cancelled caller does not fail the rest.
	shared := context.WithoutCancel(ctx)
	ch := e.lookups.DoChan(key, func() (any, error) {
		found, err := e.durableExists(shared, listType, value)
		if err != nil {
			return false, err
		}
		if found {
			e.backfill(shared, key)
		}
		return found, nil
	})
	select {
	case <-ctx.Done():
		return false, storeError(ctx.Err(), "check value")
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

// GetList returns a live list.
func (e *Engine) GetList(ctx context.Context, listID int64, role string) (list *models.List, err error) {
	ctx, span := e.begin(ctx, opGetList, attribute.Int64("list_id", listID))
	defer func() { e.end(ctx, span, opGetList, err, "list_id", listID, "role", role) }()

	if err := e.policy.CheckPermission(role, policy.ActionView); err != nil {
		return nil, err
	}
	return e.resolveList(ctx, listID)
}

// ListItems returns one page of a live list's items ordered by id. Items
// whose durability job has not run yet are not included.
func (e *Engine) ListItems(ctx context.Context, listID int64, page models.Page, role string) (items *models.ItemPage, err error) {
	ctx, span := e.begin(ctx, opListItems, attribute.Int64("list_id", listID))
	defer func() { e.end(ctx, span, opListItems, err, "list_id", listID, "role", role) }()

	if err := e.policy.CheckPermission(role, policy.ActionView); err != nil {
		return nil, err
	}
	if _, err := e.resolveList(ctx, listID); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	defer cancel()
	items, err = e.store.ListItems(sctx, listID, page.Normalize())
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("list items of list %d", listID))
	}
	return items, nil
}

// resolveList loads a live list or fails with NotFound.
func (e *Engine) resolveList(ctx context.Context, listID int64) (*models.List, error) {
	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	defer cancel()
	list, err := e.store.FindList(sctx, listID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("list %d", listID))
	}
	return list, nil
}

func (e *Engine) lookup(ctx context.Context, key string) (models.CacheState, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeouts.Cache)
	defer cancel()
	state, err := e.cache.Lookup(cctx, key)
	if err != nil {
		return models.CacheMiss, cacheError(err, "lookup")
	}
	return state, nil
}

func (e *Engine) durableExists(ctx context.Context, listType, value string) (bool, error) {
	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	defer cancel()
	found, err := e.store.ValueExists(sctx, listType, value)
	if err != nil {
		return false, storeError(err, "check value")
	}
	return found, nil
}

// backfill warms the cache after a durable hit. Failure only costs a
// future miss, so it is logged and ignored.
func (e *Engine) backfill(ctx context.Context, key string) {
	cctx, cancel := context.WithTimeout(ctx, e.timeouts.Cache)
	defer cancel()
	if err := e.cache.Backfill(cctx, key); err != nil {
		e.logger.WarnContext(ctx, "cache backfill failed", "key", key, "error", err)
	}
}

// valueState reports whether value currently exists under listType, from
// the cache when it knows and from the durable store on a miss. A durable
// hit is backfilled. The returned state is what the cache held.
func (e *Engine) valueState(ctx context.Context, listType, value string) (exists bool, state models.CacheState, err error) {
	key := models.CacheKey(listType, value)
	state, err = e.lookup(ctx, key)
	if err != nil {
		return false, state, err
	}
	switch state {
	case models.CachePresent:
		return true, state, nil
	case models.CacheTombstone:
		return false, state, nil
	}
	found, err := e.durableExists(ctx, listType, value)
	if err != nil {
		return false, state, err
	}
	if found {
		e.backfill(ctx, key)
	}
	return found, state, nil
}

// membership reports whether value is live in list and whether another live
// list of the same type holds it too. A value with no durable row is a member
// while the cache holds it present, since its add job is still queued.
func (e *Engine) membership(ctx context.Context, list *models.List, value string) (inList, shared bool, err error) {
	state, err := e.lookup(ctx, models.CacheKey(list.Type, value))
	if err != nil {
		return false, false, err
	}
	if state == models.CacheTombstone {
		return false, false, nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Store)
	defer cancel()
	holders, err := e.store.ListsContaining(sctx, list.Type, value)
	if err != nil {
		return false, false, storeError(err, fmt.Sprintf("membership of %q", value))
	}
	if len(holders) == 0 {
		return state == models.CachePresent, false, nil
	}
	for _, id := range holders {
		if id == list.ID {
			inList = true
		} else {
			shared = true
		}
	}
	return inList, shared, nil
}
