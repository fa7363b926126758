package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"listmgmt/internal/lists/models"
	"listmgmt/pkg/platform/sentinel"
)

// InMemory is a process-local store for development and tests. RunInTx
// serialises all transactions behind one lock and restores a snapshot when
// the callback fails.
type InMemory struct {
	mu         sync.Mutex
	lists      map[int64]*models.List
	items      map[int64]*models.ListItem
	nextListID int64
	nextItemID int64
	logger     *slog.Logger
	now        func() time.Time
}

// NewInMemory creates an empty store.
func NewInMemory(logger *slog.Logger) *InMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemory{
		lists:  make(map[int64]*models.List),
		items:  make(map[int64]*models.ListItem),
		logger: logger,
		now:    time.Now,
	}
}

func (s *InMemory) CreateList(ctx context.Context, name, listType string) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lists {
		if l.Name == name {
			return nil, fmt.Errorf("list name %q: %w", name, sentinel.ErrAlreadyExists)
		}
	}
	s.nextListID++
	now := s.now().UTC()
	l := &models.List{ID: s.nextListID, Name: name, Type: listType, CreatedAt: now, UpdatedAt: now}
	s.lists[l.ID] = l
	s.logger.InfoContext(ctx, "list created", "list_id", l.ID, "name", name, "type", listType)
	copied := *l
	return &copied, nil
}

func (s *InMemory) FindList(_ context.Context, listID int64) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.liveListLocked(listID)
	if err != nil {
		return nil, err
	}
	copied := *l
	return &copied, nil
}

func (s *InMemory) liveListLocked(listID int64) (*models.List, error) {
	l, ok := s.lists[listID]
	if !ok || l.IsDeleted {
		return nil, fmt.Errorf("list %d: %w", listID, sentinel.ErrNotFound)
	}
	return l, nil
}

func (s *InMemory) SoftDeleteList(ctx context.Context, listID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.liveListLocked(listID)
	if err != nil {
		return err
	}
	l.IsDeleted = true
	l.UpdatedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "list deleted", "list_id", listID)
	return nil
}

func (s *InMemory) UpdateListType(ctx context.Context, listID int64, newType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.liveListLocked(listID)
	if err != nil {
		return "", err
	}
	oldType := l.Type
	if oldType == newType {
		return oldType, nil
	}
	l.Type = newType
	l.UpdatedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "list type changed", "list_id", listID, "old_type", oldType, "new_type", newType)
	return oldType, nil
}

func (s *InMemory) ValueExists(_ context.Context, listType, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.IsDeleted || it.Value != value {
			continue
		}
		if l, ok := s.lists[it.ListID]; ok && !l.IsDeleted && l.Type == listType {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ListsContaining(_ context.Context, listType, value string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, it := range s.items {
		if it.IsDeleted || it.Value != value || seen[it.ListID] {
			continue
		}
		if l, ok := s.lists[it.ListID]; ok && !l.IsDeleted && l.Type == listType {
			seen[it.ListID] = true
			ids = append(ids, it.ListID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// liveItemsLocked returns the live items of a list ordered by id.
func (s *InMemory) liveItemsLocked(listID int64) []*models.ListItem {
	var out []*models.ListItem
	for _, it := range s.items {
		if it.ListID == listID && !it.IsDeleted {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *InMemory) ListItems(_ context.Context, listID int64, page models.Page) (*models.ItemPage, error) {
	page = page.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.liveItemsLocked(listID)
	result := &models.ItemPage{Page: page.Number, Size: page.Size, Items: []*models.ListItem{}}
	start := page.Offset()
	if start >= len(live) {
		return result, nil
	}
	end := start + page.Size
	if end < len(live) {
		result.HasMore = true
	} else {
		end = len(live)
	}
	for _, it := range live[start:end] {
		copied := *it
		result.Items = append(result.Items, &copied)
	}
	return result, nil
}

func (s *InMemory) ForEachItemBatch(_ context.Context, listID int64, batchSize int, fn func([]string) error) error {
	if batchSize <= 0 {
		batchSize = models.MaxPageSize
	}
	s.mu.Lock()
	live := s.liveItemsLocked(listID)
	values := make([]string, len(live))
	for i, it := range live {
		values[i] = it.Value
	}
	s.mu.Unlock()

	for start := 0; start < len(values); start += batchSize {
		end := min(start+batchSize, len(values))
		if err := fn(values[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemory) RunInTx(ctx context.Context, fn TxFunc) error {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	w := &memoryItemWriter{store: s}
	err := fn(ctx, w)
	if err != nil {
		s.restoreLocked(snapshot)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, e := range w.audit {
		s.logger.InfoContext(ctx, "list item committed", e.attrs()...)
	}
	return nil
}

type memorySnapshot struct {
	items      map[int64]models.ListItem
	nextItemID int64
}

func (s *InMemory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{items: make(map[int64]models.ListItem, len(s.items)), nextItemID: s.nextItemID}
	for id, it := range s.items {
		snap.items[id] = *it
	}
	return snap
}

func (s *InMemory) restoreLocked(snap memorySnapshot) {
	s.items = make(map[int64]*models.ListItem, len(snap.items))
	for id, it := range snap.items {
		copied := it
		s.items[id] = &copied
	}
	s.nextItemID = snap.nextItemID
}

// memoryItemWriter runs with the store lock held by RunInTx.
type memoryItemWriter struct {
	store *InMemory
	audit []auditEntry
}

func (w *memoryItemWriter) findLive(listID int64, value string) *models.ListItem {
	for _, it := range w.store.items {
		if it.ListID == listID && it.Value == value && !it.IsDeleted {
			return it
		}
	}
	return nil
}

func (w *memoryItemWriter) AddItem(_ context.Context, listID int64, value, comment, actor string) error {
	if _, err := w.store.liveListLocked(listID); err != nil {
		return err
	}
	if w.findLive(listID, value) != nil {
		return fmt.Errorf("item %q in list %d: %w", value, listID, sentinel.ErrAlreadyExists)
	}
	w.store.nextItemID++
	now := w.store.now().UTC()
	w.store.items[w.store.nextItemID] = &models.ListItem{
		ID:        w.store.nextItemID,
		ListID:    listID,
		Value:     value,
		Comment:   comment,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedBy: actor,
		UpdatedAt: now,
	}
	w.audit = append(w.audit, auditEntry{action: models.ActionAdd, listID: listID, value: value, actor: actor})
	return nil
}

func (w *memoryItemWriter) UpdateItem(_ context.Context, listID int64, oldValue, newValue, comment, actor string) error {
	if _, err := w.store.liveListLocked(listID); err != nil {
		return err
	}
	if oldValue != newValue && w.findLive(listID, newValue) != nil {
		return fmt.Errorf("item %q in list %d: %w", newValue, listID, sentinel.ErrAlreadyExists)
	}
	it := w.findLive(listID, oldValue)
	if it == nil {
		return fmt.Errorf("item %q in list %d: %w", oldValue, listID, sentinel.ErrNotFound)
	}
	it.Value = newValue
	if comment != "" {
		it.Comment = comment
	}
	it.UpdatedBy = actor
	it.UpdatedAt = w.store.now().UTC()
	w.audit = append(w.audit, auditEntry{action: models.ActionEdit, listID: listID, value: newValue, oldValue: oldValue, actor: actor})
	return nil
}

func (w *memoryItemWriter) SoftDeleteItem(_ context.Context, listID int64, value, actor string) error {
	it := w.findLive(listID, value)
	if it == nil {
		return fmt.Errorf("item %q in list %d: %w", value, listID, sentinel.ErrNotFound)
	}
	it.IsDeleted = true
	it.UpdatedBy = actor
	it.UpdatedAt = w.store.now().UTC()
	w.audit = append(w.audit, auditEntry{action: models.ActionDelete, listID: listID, value: value, actor: actor})
	return nil
}
