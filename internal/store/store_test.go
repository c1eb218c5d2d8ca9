package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
	"invoice-backend/internal/store"
)

func byEmail(u *models.User) string { return u.Email }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newUsers(t *testing.T) (*store.Collection[*models.User], *store.LocalDriver) {
	t.Helper()
	d, err := store.NewLocalDriver(t.TempDir())
	require.NoError(t, err)
	s := store.New(d)
	return store.NewCollection[*models.User](s, "users"), d
}

func TestListMissingCollectionIsEmpty(t *testing.T) {
	users, _ := newUsers(t)
	got, err := users.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpsertAssignsUniqueIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)

	var last int
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		u, err := users.Upsert(ctx, &models.User{Email: email}, byEmail)
		require.NoError(t, err)
		assert.Greater(t, u.ID, last)
		last = u.ID
	}
	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
}

func TestUpsertReplacePreservesPositionAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	d := store.NewMemoryDriver()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	s := store.New(d, store.WithClock(fixedClock(t0)))
	users := store.NewCollection[*models.User](s, "users")
	_, err := users.Upsert(ctx, &models.User{Email: "a@x.io", Name: "A"}, byEmail)
	require.NoError(t, err)
	_, err = users.Upsert(ctx, &models.User{Email: "b@x.io", Name: "B"}, byEmail)
	require.NoError(t, err)

	s = store.New(d, store.WithClock(fixedClock(t1)))
	users = store.NewCollection[*models.User](s, "users")
	got, err := users.Upsert(ctx, &models.User{Email: "a@x.io", Name: "A2"}, byEmail)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t1, got.UpdatedAt)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A2", all[0].Name)
	assert.Equal(t, "b@x.io", all[1].Email)
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)

	_, err := users.Upsert(ctx, &models.User{Email: "a@x.io"}, byEmail)
	require.NoError(t, err)
	b, err := users.Upsert(ctx, &models.User{Email: "b@x.io"}, byEmail)
	require.NoError(t, err)

	removed, err := users.Delete(ctx, func(u *models.User) bool { return u.ID == b.ID })
	require.NoError(t, err)
	assert.True(t, removed)

	c, err := users.Upsert(ctx, &models.User{Email: "c@x.io"}, byEmail)
	require.NoError(t, err)
	assert.Equal(t, b.ID+1, c.ID)
}

func TestExplicitIDRaisesHighWaterMark(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)

	seeded := &models.User{Email: "x@x.io"}
	seeded.ID = 3
	got, err := users.Upsert(ctx, seeded, byEmail)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)

	removed, err := users.Delete(ctx, func(u *models.User) bool { return u.ID == 3 })
	require.NoError(t, err)
	require.True(t, removed)

	var ids []int
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		u, err := users.Upsert(ctx, &models.User{Email: email}, byEmail)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int{4, 5, 6}, ids)
}

func TestDeleteReportsMiss(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	_, err := users.Upsert(ctx, &models.User{Email: "a@x.io"}, byEmail)
	require.NoError(t, err)

	removed, err := users.Delete(ctx, func(u *models.User) bool { return u.Email == "zzz" })
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetReturnsFirstMatch(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	_, err := users.Upsert(ctx, &models.User{Email: "a@x.io", Name: "same"}, byEmail)
	require.NoError(t, err)
	_, err = users.Upsert(ctx, &models.User{Email: "b@x.io", Name: "same"}, byEmail)
	require.NoError(t, err)

	u, ok, err := users.Get(ctx, func(u *models.User) bool { return u.Name == "same" })
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@x.io", u.Email)

	_, ok, err = users.Get(ctx, func(u *models.User) bool { return u.Name == "none" })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMalformedContentSelfHeals(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	d, err := store.NewLocalDriver(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(d.Dir, "users.json"), []byte("{not json"), 0o644))

	users := store.NewCollection[*models.User](store.New(d, store.WithLogger(zap.New(core))), "users")
	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, logs.FilterMessage("malformed collection treated as empty").Len())

	u, err := users.Upsert(ctx, &models.User{Email: "a@x.io"}, byEmail)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	all, err = users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNullEntriesAreSkipped(t *testing.T) {
	ctx := context.Background()
	d := store.NewMemoryDriver()
	require.NoError(t, d.Write(ctx, "users", []byte(`[null, {"id": 4, "email": "a@x.io"}]`)))

	users := store.NewCollection[*models.User](store.New(d), "users")
	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 4, all[0].ID)

	u, err := users.Upsert(ctx, &models.User{Email: "b@x.io"}, byEmail)
	require.NoError(t, err)
	assert.Equal(t, 5, u.ID)
}

func TestInsertPrepareCanReject(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	reject := func(existing []*models.User, rec *models.User) error {
		for _, u := range existing {
			if u.Email == rec.Email {
				return apperr.ErrDuplicate
			}
		}
		return nil
	}
	_, err := users.Insert(ctx, &models.User{Email: "a@x.io"}, reject)
	require.NoError(t, err)
	_, err = users.Insert(ctx, &models.User{Email: "a@x.io"}, reject)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	users, _ := newUsers(t)
	_, err := users.Update(context.Background(),
		func(u *models.User) bool { return u.ID == 42 },
		func([]*models.User, *models.User) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	u, err := users.Upsert(ctx, &models.User{Email: "a@x.io"}, byEmail)
	require.NoError(t, err)

	got, err := users.Update(ctx,
		func(x *models.User) bool { return x.ID == u.ID },
		func(_ []*models.User, x *models.User) error {
			x.ID = 99
			x.Name = "renamed"
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)
}

func TestConcurrentInsertsStayUnique(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Insert(ctx, &models.User{}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)
	seen := make(map[int]bool)
	for _, u := range all {
		assert.False(t, seen[u.ID], "duplicate id %d", u.ID)
		seen[u.ID] = true
	}
}

type failingDriver struct{ *store.MemoryDriver }

func (failingDriver) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestWriteFailureIsStorageError(t *testing.T) {
	users := store.NewCollection[*models.User](store.New(failingDriver{store.NewMemoryDriver()}), "users")
	_, err := users.Upsert(context.Background(), &models.User{Email: "a@x.io"}, byEmail)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.Contains(t, err.Error(), "disk full")
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	_, err := users.Upsert(ctx, &models.User{Email: "a@x.io"}, byEmail)
	require.NoError(t, err)
	data, err := users.Export(ctx)
	require.NoError(t, err)

	other := store.NewCollection[*models.User](store.New(store.NewMemoryDriver()), "users")
	require.NoError(t, other.Import(ctx, data))
	all, err := other.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a@x.io", all[0].Email)

	next, err := other.Insert(ctx, &models.User{Email: "b@x.io"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, next.ID)

	assert.ErrorIs(t, other.Import(ctx, []byte(`{"id":1}`)), apperr.ErrValidation)
}

func TestEphemeralDriverRemovesDirOnClose(t *testing.T) {
	d, err := store.NewEphemeralDriver()
	require.NoError(t, err)
	require.NoError(t, d.Write(context.Background(), "users", []byte("[]")))
	require.NoError(t, d.Close())
	_, err = os.Stat(d.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalDriverRejectsPathNames(t *testing.T) {
	d, err := store.NewLocalDriver(t.TempDir())
	require.NoError(t, err)
	_, err = d.Read(context.Background(), "../etc")
	assert.Error(t, err)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := store.NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "users")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "users")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "clients")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "users")
	require.NoError(t, err)
	again()
}
