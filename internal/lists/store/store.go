// Package store is the durable system of record for lists and their items.
//
// Mutations of items happen only through RunInTx, which hands the callback an
// ItemWriter bound to a single transaction and writes one audit log line per
// mutation after the transaction commits. Reads never join a transaction
// unless the caller's context already carries one.
package store

import (
	"context"

	"listmgmt/internal/lists/models"
)

// ItemWriter applies item mutations inside one transactional scope.
// Methods return sentinel.ErrNotFound when the list or the targeted live
// item does not exist, and sentinel.ErrAlreadyExists when a live item with
// the same value is already in the list.
type ItemWriter interface {
	AddItem(ctx context.Context, listID int64, value, comment, actor string) error
	UpdateItem(ctx context.Context, listID int64, oldValue, newValue, comment, actor string) error
	SoftDeleteItem(ctx context.Context, listID int64, value, actor string) error
}

// TxFunc is the unit of work executed by RunInTx.
type TxFunc func(ctx context.Context, w ItemWriter) error

// auditEntry is buffered during a transaction and logged after commit.
type auditEntry struct {
	action   models.Action
	listID   int64
	value    string
	oldValue string
	actor    string
}

func (e auditEntry) attrs() []any {
	attrs := []any{
		"action", string(e.action),
		"list_id", e.listID,
		"value", e.value,
		"actor", e.actor,
	}
	if e.oldValue != "" {
		attrs = append(attrs, "old_value", e.oldValue)
	}
	return attrs
}
