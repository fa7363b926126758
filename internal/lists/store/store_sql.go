package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/platform/database"
	"listmgmt/pkg/platform/sentinel"
	"listmgmt/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// SQLStore persists lists and items in PostgreSQL or SQLite.
type SQLStore struct {
	db        *sql.DB
	dialect   database.Dialect
	logger    *slog.Logger
	txTimeout time.Duration
	now       func() time.Time
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithLogger sets the audit logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLStore) {
		s.logger = logger
	}
}

// WithTxTimeout bounds transactions started without a caller deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

// NewSQL constructs a store for db speaking the given dialect.
func NewSQL(db *sql.DB, dialect database.Dialect, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:        db,
		dialect:   dialect,
		logger:    slog.Default(),
		txTimeout: defaultTxTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLStore) exec(ctx context.Context) tx.Executor {
	return tx.ExecutorFrom(ctx, s.db)
}

func (s *SQLStore) q(query string) string {
	return s.dialect.Rebind(query)
}

func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC()
}

// CreateList inserts a new live list and returns it with its assigned id.
func (s *SQLStore) CreateList(ctx context.Context, name, listType string) (*models.List, error) {
	now := s.timestamp()
	var id int64
	err := s.exec(ctx).QueryRowContext(ctx, s.q(`
		INSERT INTO lists (name, type, is_deleted, created_at, updated_at)
		VALUES (?, ?, FALSE, ?, ?)
		RETURNING id`),
		name, listType, now, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", database.Classify(err))
	}
	s.logger.InfoContext(ctx, "list created", "list_id", id, "name", name, "type", listType)
	return &models.List{ID: id, Name: name, Type: listType, CreatedAt: now, UpdatedAt: now}, nil
}

// FindList returns a live list by id.
func (s *SQLStore) FindList(ctx context.Context, listID int64) (*models.List, error) {
	var l models.List
	err := s.exec(ctx).QueryRowContext(ctx, s.q(`
		SELECT id, name, type, is_deleted, created_at, updated_at
		FROM lists
		WHERE id = ? AND is_deleted = FALSE`),
		listID,
	).Scan(&l.ID, &l.Name, &l.Type, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %d: %w", listID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find list: %w", database.Classify(err))
	}
	return &l, nil
}

// SoftDeleteList flags a live list as deleted. Its items are retained.
func (s *SQLStore) SoftDeleteList(ctx context.Context, listID int64) error {
	res, err := s.exec(ctx).ExecContext(ctx, s.q(`
		UPDATE lists SET is_deleted = TRUE, updated_at = ?
		WHERE id = ? AND is_deleted = FALSE`),
		s.timestamp(), listID,
	)
	if err != nil {
		return fmt.Errorf("soft delete list: %w", database.Classify(err))
	}
	if err := expectOneRow(res, fmt.Sprintf("list %d", listID)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "list deleted", "list_id", listID)
	return nil
}

// UpdateListType sets a new type tag on a live list and returns the previous
// tag. Setting the current tag again is a no-op.
func (s *SQLStore) UpdateListType(ctx context.Context, listID int64, newType string) (string, error) {
	var oldType string
	err := s.withTx(ctx, func(ctx context.Context) error {
		err := s.exec(ctx).QueryRowContext(ctx, s.q(`
			SELECT type FROM lists WHERE id = ? AND is_deleted = FALSE`),
			listID,
		).Scan(&oldType)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("list %d: %w", listID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("select list type: %w", database.Classify(err))
		}
		if oldType == newType {
			return nil
		}
		res, err := s.exec(ctx).ExecContext(ctx, s.q(`
			UPDATE lists SET type = ?, updated_at = ?
			WHERE id = ? AND type = ? AND is_deleted = FALSE`),
			newType, s.timestamp(), listID, oldType,
		)
		if err != nil {
			return fmt.Errorf("update list type: %w", database.Classify(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("list %d type changed concurrently: %w", listID, sentinel.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if oldType != newType {
		s.logger.InfoContext(ctx, "list type changed", "list_id", listID, "old_type", oldType, "new_type", newType)
	}
	return oldType, nil
}

// ValueExists reports whether a live item with value exists under any live
// list of the given type.
func (s *SQLStore) ValueExists(ctx context.Context, listType, value string) (bool, error) {
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx, s.q(`
		SELECT EXISTS (
			SELECT 1 FROM list_items i
			JOIN lists l ON l.id = i.list_id
			WHERE l.type = ? AND l.is_deleted = FALSE
			  AND i.value = ? AND i.is_deleted = FALSE
		)`),
		listType, value,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check value: %w", database.Classify(err))
	}
	return exists, nil
}

// ListsContaining returns the ids of the live lists of listType that hold a
// live item with value, in ascending order.
func (s *SQLStore) ListsContaining(ctx context.Context, listType, value string) ([]int64, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, s.q(`
		SELECT DISTINCT i.list_id FROM list_items i
		JOIN lists l ON l.id = i.list_id
		WHERE l.type = ? AND l.is_deleted = FALSE
		  AND i.value = ? AND i.is_deleted = FALSE
		ORDER BY i.list_id`),
		listType, value,
	)
	if err != nil {
		return nil, fmt.Errorf("lists containing value: %w", database.Classify(err))
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan list id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list ids: %w", database.Classify(err))
	}
	return ids, nil
}

// ListItems returns one page of live items ordered by id.
func (s *SQLStore) ListItems(ctx context.Context, listID int64, page models.Page) (*models.ItemPage, error) {
	page = page.Normalize()
	rows, err := s.exec(ctx).QueryContext(ctx, s.q(`
		SELECT id, list_id, value, comment, is_deleted, created_by, created_at, updated_by, updated_at
		FROM list_items
		WHERE list_id = ? AND is_deleted = FALSE
		ORDER BY id
		LIMIT ? OFFSET ?`),
		listID, page.Size+1, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", database.Classify(err))
	}
	defer rows.Close()

	items := make([]*models.ListItem, 0, page.Size)
	for rows.Next() {
		var it models.ListItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.Value, &it.Comment, &it.IsDeleted,
			&it.CreatedBy, &it.CreatedAt, &it.UpdatedBy, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list items: %w", database.Classify(err))
	}

	result := &models.ItemPage{Page: page.Number, Size: page.Size}
	if len(items) > page.Size {
		items = items[:page.Size]
		result.HasMore = true
	}
	result.Items = items
	return result, nil
}

// ForEachItemBatch walks the live values of a list in id order, handing fn at
// most batchSize values at a time. Iteration stops at the first error.
func (s *SQLStore) ForEachItemBatch(ctx context.Context, listID int64, batchSize int, fn func([]string) error) error {
	if batchSize <= 0 {
		batchSize = models.MaxPageSize
	}
	var afterID int64
	for {
		ids, values, err := s.itemBatch(ctx, listID, afterID, batchSize)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		if err := fn(values); err != nil {
			return err
		}
		if len(values) < batchSize {
			return nil
		}
		afterID = ids[len(ids)-1]
	}
}

func (s *SQLStore) itemBatch(ctx context.Context, listID, afterID int64, limit int) ([]int64, []string, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, s.q(`
		SELECT id, value FROM list_items
		WHERE list_id = ? AND is_deleted = FALSE AND id > ?
		ORDER BY id
		LIMIT ?`),
		listID, afterID, limit,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("scan item batch: %w", database.Classify(err))
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	values := make([]string, 0, limit)
	for rows.Next() {
		var (
			id    int64
			value string
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, nil, fmt.Errorf("scan item batch row: %w", err)
		}
		ids = append(ids, id)
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate item batch: %w", database.Classify(err))
	}
	return ids, values, nil
}

// RunInTx executes fn in one transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Audit lines are written only after a
// successful commit.
func (s *SQLStore) RunInTx(ctx context.Context, fn TxFunc) error {
	w := &sqlItemWriter{store: s}
	if err := s.withTx(ctx, func(ctx context.Context) error {
		return fn(ctx, w)
	}); err != nil {
		return err
	}
	for _, e := range w.audit {
		s.logger.InfoContext(ctx, "list item committed", e.attrs()...)
	}
	return nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", database.Classify(err))
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", database.Classify(err))
	}
	return nil
}

type sqlItemWriter struct {
	store *SQLStore
	audit []auditEntry
}

func (w *sqlItemWriter) listLive(ctx context.Context, listID int64) error {
	var one int
	err := w.store.exec(ctx).QueryRowContext(ctx, w.store.q(`
		SELECT 1 FROM lists WHERE id = ? AND is_deleted = FALSE`),
		listID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("list %d: %w", listID, sentinel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check list: %w", database.Classify(err))
	}
	return nil
}

func (w *sqlItemWriter) itemLive(ctx context.Context, listID int64, value string) (bool, error) {
	var exists bool
	err := w.store.exec(ctx).QueryRowContext(ctx, w.store.q(`
		SELECT EXISTS (
			SELECT 1 FROM list_items
			WHERE list_id = ? AND value = ? AND is_deleted = FALSE
		)`),
		listID, value,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check item: %w", database.Classify(err))
	}
	return exists, nil
}

func (w *sqlItemWriter) AddItem(ctx context.Context, listID int64, value, comment, actor string) error {
	if err := w.listLive(ctx, listID); err != nil {
		return err
	}
	exists, err := w.itemLive(ctx, listID, value)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("item %q in list %d: %w", value, listID, sentinel.ErrAlreadyExists)
	}

	now := w.store.timestamp()
	_, err = w.store.exec(ctx).ExecContext(ctx, w.store.q(`
		INSERT INTO list_items (list_id, value, comment, is_deleted, created_by, created_at, updated_by, updated_at)
		VALUES (?, ?, ?, FALSE, ?, ?, ?, ?)`),
		listID, value, comment, actor, now, actor, now,
	)
	if err != nil {
		return fmt.Errorf("insert list item: %w", database.Classify(err))
	}
	w.audit = append(w.audit, auditEntry{action: models.ActionAdd, listID: listID, value: value, actor: actor})
	return nil
}

// UpdateItem renames the live item holding oldValue. An empty comment keeps
// the existing one.
func (w *sqlItemWriter) UpdateItem(ctx context.Context, listID int64, oldValue, newValue, comment, actor string) error {
	if err := w.listLive(ctx, listID); err != nil {
		return err
	}
	if oldValue != newValue {
		exists, err := w.itemLive(ctx, listID, newValue)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("item %q in list %d: %w", newValue, listID, sentinel.ErrAlreadyExists)
		}
	}

	res, err := w.store.exec(ctx).ExecContext(ctx, w.store.q(`
		UPDATE list_items
		SET value = ?, comment = COALESCE(NULLIF(?, ''), comment), updated_by = ?, updated_at = ?
		WHERE list_id = ? AND value = ? AND is_deleted = FALSE`),
		newValue, comment, actor, w.store.timestamp(), listID, oldValue,
	)
	if err != nil {
		return fmt.Errorf("update list item: %w", database.Classify(err))
	}
	if err := expectOneRow(res, fmt.Sprintf("item %q in list %d", oldValue, listID)); err != nil {
		return err
	}
	w.audit = append(w.audit, auditEntry{action: models.ActionEdit, listID: listID, value: newValue, oldValue: oldValue, actor: actor})
	return nil
}

func (w *sqlItemWriter) SoftDeleteItem(ctx context.Context, listID int64, value, actor string) error {
	res, err := w.store.exec(ctx).ExecContext(ctx, w.store.q(`
		UPDATE list_items
		SET is_deleted = TRUE, updated_by = ?, updated_at = ?
		WHERE list_id = ? AND value = ? AND is_deleted = FALSE`),
		actor, w.store.timestamp(), listID, value,
	)
	if err != nil {
		return fmt.Errorf("soft delete list item: %w", database.Classify(err))
	}
	if err := expectOneRow(res, fmt.Sprintf("item %q in list %d", value, listID)); err != nil {
		return err
	}
	w.audit = append(w.audit, auditEntry{action: models.ActionDelete, listID: listID, value: value, actor: actor})
	return nil
}

// expectOneRow maps "no rows touched" to ErrNotFound. Drivers that cannot
// report affected rows are trusted.
func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}
