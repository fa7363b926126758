package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// List is a named collection of values. Type partitions the cache keyspace
// of its items.
type List struct {
	ID        int64
	Name      string
	Type      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListItem is one value in a list. ListID never changes after creation.
type ListItem struct {
	ID        int64
	ListID    int64
	Value     string
	Comment   string
	IsDeleted bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedBy string
	UpdatedAt time.Time
}

// CacheKey returns the lookaside key for a value under a list type.
func CacheKey(listType, value string) string {
	return listType + ":" + value
}

// Action is the durable mutation a job carries.
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionAdd, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// Job is an immutable record of one pending durable mutation. For edits,
// OldValue is the value being replaced and Value the replacement. ListType is
// the list's type when the job was enqueued.
type Job struct {
	ID         uuid.UUID `msgpack:"id"`
	ListID     int64     `msgpack:"list_id"`
	ListType   string    `msgpack:"list_type,omitempty"`
	Action     Action    `msgpack:"action"`
	Value      string    `msgpack:"value"`
	OldValue   string    `msgpack:"old_value,omitempty"`
	Comment    string    `msgpack:"comment,omitempty"`
	Actor      string    `msgpack:"actor"`
	EnqueuedAt time.Time `msgpack:"enqueued_at"`
}

// NewJob stamps a job with a fresh ID and enqueue time.
func NewJob(listID int64, action Action, value, oldValue, comment, actor string, now time.Time) Job {
	return Job{
		ID:         uuid.New(),
		ListID:     listID,
		Action:     action,
		Value:      value,
		OldValue:   oldValue,
		Comment:    comment,
		Actor:      actor,
		EnqueuedAt: now,
	}
}

// CacheKeys returns the keys the job touches under listType.
func (j Job) CacheKeys(listType string) []string {
	keys := []string{CacheKey(listType, j.Value)}
	if j.Action == ActionEdit && j.OldValue != "" {
		keys = append(keys, CacheKey(listType, j.OldValue))
	}
	return keys
}

// PartitionKey groups jobs that must be applied in submission order.
func (j Job) PartitionKey() string {
	return strconv.FormatInt(j.ListID, 10)
}

// CacheState is what the lookaside cache knows about a key.
type CacheState int

const (
	// CacheMiss means the cache has no opinion; consult the durable store.
	CacheMiss CacheState = iota
	// CachePresent means the value exists.
	CachePresent
	// CacheTombstone means the value was removed and its durable delete may
	// still be pending.
	CacheTombstone
)

func (s CacheState) String() string {
	switch s {
	case CachePresent:
		return "present"
	case CacheTombstone:
		return "tombstone"
	default:
		return "miss"
	}
}
