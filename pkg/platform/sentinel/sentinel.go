package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and queues return
// these (optionally wrapped) so the engine can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: list or item does not exist (or is soft-deleted)
// - ErrAlreadyExists: unique constraint violated (e.g. list name taken)
// - ErrConflict: transactional integrity violation in the durable store
// - ErrUnavailable: backing service unreachable or timed out
// - ErrClosed: queue no longer accepts jobs
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrClosed        = errors.New("closed")
)
