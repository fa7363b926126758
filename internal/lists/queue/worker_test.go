package queue

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/lists/store"
	dErrors "listmgmt/pkg/domain-errors"
)

type WorkerSuite struct {
	suite.Suite
	store  *store.InMemory
	worker *Worker
	logs   *bytes.Buffer
	listID int64
	ctx    context.Context
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctx = context.Background()
	s.logs = &bytes.Buffer{}
	s.store = store.NewInMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.worker = NewWorker(s.store, WithWorkerLogger(slog.New(slog.NewTextHandler(s.logs, nil))))

	l, err := s.store.CreateList(s.ctx, "ips", "blacklist")
	s.Require().NoError(err)
	s.listID = l.ID
}

func (s *WorkerSuite) newJob(action models.Action, value, oldValue string) models.Job {
	return models.NewJob(s.listID, action, value, oldValue, "", "alice", time.Now())
}

func (s *WorkerSuite) exists(value string) bool {
	ok, err := s.store.ValueExists(s.ctx, "blacklist", value)
	s.Require().NoError(err)
	return ok
}

func (s *WorkerSuite) TestAppliesEachAction() {
	s.Run("add", func() {
		s.Require().NoError(s.worker.Handle(s.ctx, s.newJob(models.ActionAdd, "v1", "")))
		s.True(s.exists("v1"))
	})

	s.Run("edit locates the row by its old value", func() {
		s.Require().NoError(s.worker.Handle(s.ctx, s.newJob(models.ActionEdit, "v2", "v1")))
		s.False(s.exists("v1"))
		s.True(s.exists("v2"))
	})

	s.Run("delete", func() {
		s.Require().NoError(s.worker.Handle(s.ctx, s.newJob(models.ActionDelete, "v2", "")))
		s.False(s.exists("v2"))
	})

	s.Contains(s.logs.String(), "durability job applied")
}

func (s *WorkerSuite) TestFailedJobIsDroppedAsStorageConflict() {
	j := s.newJob(models.ActionEdit, "renamed", "never-added")

	err := s.worker.Handle(s.ctx, j)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(s.logs.String(), "durability job failed, dropping")
	s.Contains(s.logs.String(), j.ID.String())
	s.False(s.exists("renamed"))
}

func (s *WorkerSuite) TestAddToSoftDeletedListConflicts() {
	s.Require().NoError(s.worker.Handle(s.ctx, s.newJob(models.ActionAdd, "x1", "")))
	s.Require().NoError(s.store.SoftDeleteList(s.ctx, s.listID))

	err := s.worker.Handle(s.ctx, s.newJob(models.ActionAdd, "x2", ""))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// recordingKeys remembers every key the worker asks to drop.
type recordingKeys struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingKeys) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
	return nil
}

func (r *recordingKeys) dropped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// =============================================================================
// Cache Repair
// =============================================================================
// Justification: a dropped job or a type change under a queued job leaves
// cache keys that no durable row backs; the worker removes them.

func (s *WorkerSuite) typedJob(action models.Action, value, oldValue string) models.Job {
	j := s.newJob(action, value, oldValue)
	j.ListType = "blacklist"
	return j
}

func (s *WorkerSuite) TestCacheRepair() {
	s.Run("dropped edit releases both keys", func() {
		keys := &recordingKeys{}
		w := NewWorker(s.store, WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithKeyInvalidator(keys))

		err := w.Handle(s.ctx, s.typedJob(models.ActionEdit, "renamed", "never-added"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal([]string{"blacklist:renamed", "blacklist:never-added"}, keys.dropped())
	})

	s.Run("applied job on an unchanged list keeps its keys", func() {
		keys := &recordingKeys{}
		w := NewWorker(s.store, WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithKeyInvalidator(keys))

		s.Require().NoError(w.Handle(s.ctx, s.typedJob(models.ActionAdd, "steady", "")))
		s.Empty(keys.dropped())
	})

	s.Run("applied add after a type change drops the old-type key", func() {
		keys := &recordingKeys{}
		w := NewWorker(s.store, WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithKeyInvalidator(keys))
		job := s.typedJob(models.ActionAdd, "moved", "")
		_, err := s.store.UpdateListType(s.ctx, s.listID, "whitelist")
		s.Require().NoError(err)

		s.Require().NoError(w.Handle(s.ctx, job))
		s.Equal([]string{"blacklist:moved"}, keys.dropped())
	})

	s.Run("jobs without a list type are left alone", func() {
		keys := &recordingKeys{}
		w := NewWorker(s.store, WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithKeyInvalidator(keys))

		s.Error(w.Handle(s.ctx, s.newJob(models.ActionDelete, "absent", "")))
		s.Empty(keys.dropped())
	})
}
