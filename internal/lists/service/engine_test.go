package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Cache,Store,Queue,Notifier,Authorizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/lists/service/mocks"
	"listmgmt/internal/policy"
	dErrors "listmgmt/pkg/domain-errors"
	"listmgmt/pkg/platform/sentinel"
)

// =============================================================================
// Engine Unit Test Suite
// =============================================================================
// Justification for unit tests: the engine's contract is mostly about which
// collaborator calls happen, in what order, and which do not happen at all.
// Mocks make "no side effects" and "exactly one durable lookup" checkable.

type EngineSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	cache    *mocks.MockCache
	store    *mocks.MockStore
	queue    *mocks.MockQueue
	notifier *mocks.MockNotifier
	engine   *Engine
	ctx      context.Context
	list     *models.List
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cache = mocks.NewMockCache(s.ctrl)
	s.store = mocks.NewMockStore(s.ctrl)
	s.queue = mocks.NewMockQueue(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.ctx = context.Background()
	s.list = &models.List{ID: 7, Name: "ips", Type: "blacklist"}

	var err error
	s.engine, err = New(s.cache, s.store, s.queue, policy.Default(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.notifier),
	)
	s.Require().NoError(err)
}

func (s *EngineSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EngineSuite) expectList() {
	s.store.EXPECT().FindList(gomock.Any(), s.list.ID).Return(s.list, nil)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *EngineSuite) TestNew() {
	authz := policy.Default()

	s.Run("nil cache", func() {
		_, err := New(nil, s.store, s.queue, authz)
		s.ErrorContains(err, "cache is required")
	})
	s.Run("nil store", func() {
		_, err := New(s.cache, nil, s.queue, authz)
		s.ErrorContains(err, "store is required")
	})
	s.Run("nil queue", func() {
		_, err := New(s.cache, s.store, nil, authz)
		s.ErrorContains(err, "queue is required")
	})
	s.Run("nil policy", func() {
		_, err := New(s.cache, s.store, s.queue, nil)
		s.ErrorContains(err, "policy is required")
	})
	s.Run("timeouts override only non-zero fields", func() {
		e, err := New(s.cache, s.store, s.queue, authz, WithTimeouts(Timeouts{Store: 42}))
		s.Require().NoError(err)
		s.EqualValues(42, e.timeouts.Store)
		s.Equal(DefaultTimeouts().Cache, e.timeouts.Cache)
	})
}

// =============================================================================
// Permission Gating
// =============================================================================
// Justification: a denied caller must not cause any cache, store or queue
// traffic. The mocks fail the test on any unexpected call.

func (s *EngineSuite) TestViewerCannotMutate() {
	s.Run("add", func() {
		_, err := s.engine.AddValue(s.ctx, 7, "v", "", "vic", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("edit", func() {
		_, err := s.engine.EditValue(s.ctx, 7, "a", "b", "", "vic", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("delete", func() {
		_, err := s.engine.DeleteValue(s.ctx, 7, "v", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("change type", func() {
		_, err := s.engine.ChangeListType(s.ctx, 7, "whitelist", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("bulk add", func() {
		_, err := s.engine.BulkAdd(s.ctx, 7, []string{"a"}, "", "vic", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("create list", func() {
		_, err := s.engine.CreateList(s.ctx, "new", "blacklist", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
	s.Run("unknown role cannot even view", func() {
		_, err := s.engine.CheckValue(s.ctx, "blacklist", "v", "intruder")
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
}

func (s *EngineSuite) TestValidationRejectsBeforeIO() {
	_, err := s.engine.CheckValue(s.ctx, "blacklist", "has space", policy.RoleViewer)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.engine.CheckValue(s.ctx, "black:list", "v", policy.RoleViewer)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// =============================================================================
// Read Path
// =============================================================================

func (s *EngineSuite) TestCheckValue() {
	s.Run("cache hit skips the durable store", func() {
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:hit").Return(models.CachePresent, nil)

		ok, err := s.engine.CheckValue(s.ctx, "blacklist", "hit", policy.RoleViewer)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("tombstone answers false without the durable store", func() {
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:gone").Return(models.CacheTombstone, nil)

		ok, err := s.engine.CheckValue(s.ctx, "blacklist", "gone", policy.RoleViewer)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("miss consults the store once and backfills", func() {
		gomock.InOrder(
			s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:cold").Return(models.CacheMiss, nil),
			s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "cold").Return(true, nil).Times(1),
			s.cache.EXPECT().Backfill(gomock.Any(), "blacklist:cold").Return(nil),
		)
		ok, err := s.engine.CheckValue(s.ctx, "blacklist", "cold", policy.RoleViewer)
		s.Require().NoError(err)
		s.True(ok)

		// second call is served by the backfilled cache
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:cold").Return(models.CachePresent, nil)
		ok, err = s.engine.CheckValue(s.ctx, "blacklist", "cold", policy.RoleViewer)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("miss and absent does not backfill", func() {
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:absent").Return(models.CacheMiss, nil)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "absent").Return(false, nil)

		ok, err := s.engine.CheckValue(s.ctx, "blacklist", "absent", policy.RoleViewer)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("cache failure is unavailable", func() {
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:x").Return(models.CacheMiss, errors.New("connection refused"))

		_, err := s.engine.CheckValue(s.ctx, "blacklist", "x", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("a cancelled caller does not fail coalesced waiters", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:shared").Return(models.CacheMiss, nil).Times(2)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "shared").DoAndReturn(
			func(ctx context.Context, _, _ string) (bool, error) {
				close(started)
				<-release
				return ctx.Err() == nil, ctx.Err()
			})
		s.cache.EXPECT().Backfill(gomock.Any(), "blacklist:shared").Return(nil)

		first, cancel := context.WithCancel(s.ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := s.engine.CheckValue(first, "blacklist", "shared", policy.RoleViewer)
			firstErr <- err
		}()
		<-started

		type outcome struct {
			ok  bool
			err error
		}
		second := make(chan outcome, 1)
		go func() {
			ok, err := s.engine.CheckValue(s.ctx, "blacklist", "shared", policy.RoleViewer)
			second <- outcome{ok, err}
		}()
		// Justification: give the second caller time to join the in-flight lookup.
		time.Sleep(50 * time.Millisecond)

		cancel()
		s.True(dErrors.HasCode(<-firstErr, dErrors.CodeUnavailable))

		close(release)
		got := <-second
		s.Require().NoError(got.err)
		s.True(got.ok)
	})

	s.Run("store timeout is unavailable", func() {
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:slow").Return(models.CacheMiss, nil)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "slow").Return(false, context.DeadlineExceeded)

		_, err := s.engine.CheckValue(s.ctx, "blacklist", "slow", policy.RoleViewer)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

// =============================================================================
// Write Path
// =============================================================================

func (s *EngineSuite) TestAddValue() {
	s.Run("claims the key then enqueues an add job", func() {
		s.expectList()
		gomock.InOrder(
			s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:new").Return(models.CacheMiss, nil),
			s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "new").Return(false, nil),
			s.cache.EXPECT().Claim(gomock.Any(), "blacklist:new").Return(true, nil),
			s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, job models.Job) error {
					s.Equal(models.ActionAdd, job.Action)
					s.Equal(int64(7), job.ListID)
					s.Equal("new", job.Value)
					s.Equal("alice", job.Actor)
					s.Equal("first seen", job.Comment)
					return nil
				}),
		)

		res, err := s.engine.AddValue(s.ctx, 7, "new", "first seen", "alice", policy.RoleEditor)
		s.Require().NoError(err)
		s.Equal(models.StatusAdded, res.Status)
	})

	s.Run("cache hit is a duplicate, notifies, enqueues nothing", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:dup").Return(models.CachePresent, nil)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.engine.AddValue(s.ctx, 7, "dup", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("lost claim race is a duplicate", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:race").Return(models.CacheMiss, nil)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "race").Return(false, nil)
		s.cache.EXPECT().Claim(gomock.Any(), "blacklist:race").Return(false, nil)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.engine.AddValue(s.ctx, 7, "race", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("notifier failure does not change the outcome", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:dup2").Return(models.CachePresent, nil)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("slack down"))

		_, err := s.engine.AddValue(s.ctx, 7, "dup2", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("enqueue failure releases the claim", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:lost").Return(models.CacheMiss, nil)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "lost").Return(false, nil)
		s.cache.EXPECT().Claim(gomock.Any(), "blacklist:lost").Return(true, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(sentinel.ErrClosed)
		s.cache.EXPECT().Delete(gomock.Any(), "blacklist:lost").Return(nil)

		_, err := s.engine.AddValue(s.ctx, 7, "lost", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("enqueue failure over a tombstone restores the tombstone", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:back").Return(models.CacheTombstone, nil)
		s.cache.EXPECT().Claim(gomock.Any(), "blacklist:back").Return(true, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)
		s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:back").Return(models.CachePresent, nil)

		_, err := s.engine.AddValue(s.ctx, 7, "back", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("missing list", func() {
		s.store.EXPECT().FindList(gomock.Any(), int64(99)).Return(nil, sentinel.ErrNotFound)

		_, err := s.engine.AddValue(s.ctx, 99, "v", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestEditValueCarriesTheRealOldValue() {
	s.expectList()
	s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:old").Return(models.CachePresent, nil)
	s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "old").Return([]int64{7}, nil)
	s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:new").Return(models.CacheMiss, nil)
	s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "new").Return(false, nil)
	s.cache.EXPECT().Claim(gomock.Any(), "blacklist:new").Return(true, nil)
	s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:old").Return(models.CachePresent, nil)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job models.Job) error {
		s.Equal(models.ActionEdit, job.Action)
		s.Equal("old", job.OldValue)
		s.Equal("new", job.Value)
		s.Equal("blacklist", job.ListType)
		return nil
	})

	res, err := s.engine.EditValue(s.ctx, 7, "old", "new", "", "alice", policy.RoleEditor)
	s.Require().NoError(err)
	s.Equal(models.StatusEdited, res.Status)
}

func (s *EngineSuite) TestEditValueRejections() {
	s.Run("same value", func() {
		s.expectList()
		_, err := s.engine.EditValue(s.ctx, 7, "same", "same", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("old value missing", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:nope").Return(models.CacheMiss, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "nope").Return(nil, nil)

		_, err := s.engine.EditValue(s.ctx, 7, "nope", "other", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("old value held only by another list of the type", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:theirs").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "theirs").Return([]int64{8}, nil)

		_, err := s.engine.EditValue(s.ctx, 7, "theirs", "mine", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("concurrent removal of old value releases the new claim", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:o").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "o").Return([]int64{7}, nil)
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:n").Return(models.CacheMiss, nil)
		s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "n").Return(false, nil)
		s.cache.EXPECT().Claim(gomock.Any(), "blacklist:n").Return(true, nil)
		s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:o").Return(models.CacheTombstone, nil)
		s.cache.EXPECT().Delete(gomock.Any(), "blacklist:n").Return(nil)

		_, err := s.engine.EditValue(s.ctx, 7, "o", "n", "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestEditValueOfSharedValueKeepsItsKey() {
	// Justification: the old value stays live in list 8, so its key must
	// not be tombstoned by an edit in list 7.
	s.expectList()
	s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:both").Return(models.CacheMiss, nil)
	s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "both").Return([]int64{7, 8}, nil)
	s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:renamed").Return(models.CacheMiss, nil)
	s.store.EXPECT().ValueExists(gomock.Any(), "blacklist", "renamed").Return(false, nil)
	s.cache.EXPECT().Claim(gomock.Any(), "blacklist:renamed").Return(true, nil)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.engine.EditValue(s.ctx, 7, "both", "renamed", "", "alice", policy.RoleEditor)
	s.Require().NoError(err)
}

func (s *EngineSuite) TestDeleteValue() {
	s.Run("absent from cache and store is not found", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:ghost").Return(models.CacheMiss, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "ghost").Return(nil, nil)

		_, err := s.engine.DeleteValue(s.ctx, 7, "ghost", policy.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("held only by another list of the type is not found", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:sibling").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "sibling").Return([]int64{8}, nil)

		_, err := s.engine.DeleteValue(s.ctx, 7, "sibling", policy.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("shared with another list enqueues without a tombstone", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:both").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "both").Return([]int64{7, 8}, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job models.Job) error {
			s.Equal(models.ActionDelete, job.Action)
			s.Equal(int64(7), job.ListID)
			return nil
		})

		_, err := s.engine.DeleteValue(s.ctx, 7, "both", policy.RoleAdmin)
		s.Require().NoError(err)
	})

	s.Run("pending add with no durable row is deletable", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:queued").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "queued").Return(nil, nil)
		s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:queued").Return(models.CachePresent, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.engine.DeleteValue(s.ctx, 7, "queued", policy.RoleAdmin)
		s.Require().NoError(err)
	})

	s.Run("enqueue failure restores the present marker", func() {
		s.expectList()
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:keep").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "keep").Return([]int64{7}, nil)
		s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:keep").Return(models.CachePresent, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
		s.cache.EXPECT().Restore(gomock.Any(), "blacklist:keep").Return(nil)

		_, err := s.engine.DeleteValue(s.ctx, 7, "keep", policy.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *EngineSuite) TestChangeListType() {
	s.Run("invalidates every old-type key", func() {
		s.store.EXPECT().UpdateListType(gomock.Any(), int64(7), "whitelist").Return("blacklist", nil)
		s.store.EXPECT().ForEachItemBatch(gomock.Any(), int64(7), invalidateBatchSize, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ int64, _ int, fn func([]string) error) error {
				if err := fn([]string{"a", "b"}); err != nil {
					return err
				}
				return fn([]string{"c"})
			})
		s.cache.EXPECT().Delete(gomock.Any(), "blacklist:a", "blacklist:b").Return(nil)
		s.cache.EXPECT().Delete(gomock.Any(), "blacklist:c").Return(nil)

		res, err := s.engine.ChangeListType(s.ctx, 7, "whitelist", policy.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(models.StatusTypeChanged, res.Status)
	})

	s.Run("same type skips invalidation", func() {
		s.store.EXPECT().UpdateListType(gomock.Any(), int64(7), "blacklist").Return("blacklist", nil)

		_, err := s.engine.ChangeListType(s.ctx, 7, "blacklist", policy.RoleAdmin)
		s.NoError(err)
	})

	s.Run("missing list", func() {
		s.store.EXPECT().UpdateListType(gomock.Any(), int64(8), "whitelist").Return("", sentinel.ErrNotFound)

		_, err := s.engine.ChangeListType(s.ctx, 8, "whitelist", policy.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Bulk
// =============================================================================

func (s *EngineSuite) TestBulkChecksPermissionAndListOnce() {
	s.Run("empty input", func() {
		_, err := s.engine.BulkAdd(s.ctx, 7, nil, "", "alice", policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing list aborts the whole call", func() {
		s.store.EXPECT().FindList(gomock.Any(), int64(7)).Return(nil, sentinel.ErrNotFound).Times(1)

		_, err := s.engine.BulkDelete(s.ctx, 7, []string{"a", "b"}, policy.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("editor may bulk delete without single delete permission", func() {
		s.store.EXPECT().FindList(gomock.Any(), int64(7)).Return(s.list, nil).Times(1)
		s.cache.EXPECT().Lookup(gomock.Any(), "blacklist:a").Return(models.CachePresent, nil)
		s.store.EXPECT().ListsContaining(gomock.Any(), "blacklist", "a").Return([]int64{7}, nil)
		s.cache.EXPECT().Tombstone(gomock.Any(), "blacklist:a").Return(models.CachePresent, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.engine.BulkDelete(s.ctx, 7, []string{"a", "bad value"}, policy.RoleEditor)
		s.Require().NoError(err)
		s.Equal(models.StatusPartialSuccess, res.Status)
		s.Equal([]string{"a"}, res.Succeeded)
		s.Equal([]string{"bad value: validation_failed"}, res.Errors)
	})
}
