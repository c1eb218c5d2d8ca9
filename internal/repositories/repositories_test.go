package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
	"invoice-backend/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	d, err := store.NewLocalDriver(t.TempDir())
	require.NoError(t, err)
	return store.New(d)
}

func strPtr(s string) *string { return &s }

func TestUserCreateDuplicateLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := NewUserRepository(s)

	first, err := repo.Create(ctx, "a@x.io", "A", "hash-a", false)
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	before, err := repo.Collection().Export(ctx)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "a@x.io", "Other", "hash-b", true)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	after, err := repo.Collection().Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUserEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t))
	_, err := repo.Create(ctx, "a@x.io", "A", "h", false)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "A@x.io", "A", "h", false)
	assert.NoError(t, err)
}

func TestUserFindAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t))
	u, err := repo.Create(ctx, "a@x.io", "A", "h", false)
	require.NoError(t, err)

	byEmail, err := repo.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", byID.Email)

	removed, err := repo.Delete(ctx, "a@x.io")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.FindByEmail(ctx, "a@x.io")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	removed, err = repo.Delete(ctx, "a@x.io")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserUpdateRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t))
	_, err := repo.Create(ctx, "a@x.io", "A", "h", false)
	require.NoError(t, err)
	b, err := repo.Create(ctx, "b@x.io", "B", "h", false)
	require.NoError(t, err)

	_, err = repo.Update(ctx, b.ID, models.UserUpdate{Email: strPtr("a@x.io")})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	got, err := repo.Update(ctx, b.ID, models.UserUpdate{Email: strPtr("b@x.io"), Name: strPtr("Bee")})
	require.NoError(t, err)
	assert.Equal(t, "Bee", got.Name)
}

func TestClientPartialUpdateTouchesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	d := store.NewMemoryDriver()

	repo := NewClientRepository(store.New(d, store.WithClock(func() time.Time { return t0 })))
	c, err := repo.Create(ctx, &models.Client{Name: "Acme", Email: strPtr("billing@acme.io"), GST: strPtr("GST-1")})
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	repo = NewClientRepository(store.New(d, store.WithClock(func() time.Time { return t1 })))
	got, err := repo.Update(ctx, c.ID, models.ClientUpdate{Phone: strPtr("+92 300 0000000")})
	require.NoError(t, err)

	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "billing@acme.io", *got.Email)
	assert.Equal(t, "GST-1", *got.GST)
	assert.Equal(t, "+92 300 0000000", *got.Phone)
	assert.Nil(t, got.Address)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t1, got.UpdatedAt)

	_, err = repo.Update(ctx, 999, models.ClientUpdate{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInvoiceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newStore(t))

	inv, err := repo.Create(ctx, &models.Invoice{InvoiceNumber: "INV-0001", Status: models.InvoiceStatusSent}, nil)
	require.NoError(t, err)

	byNumber, err := repo.FindByNumber(ctx, "INV-0001")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byNumber.ID)

	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	changed, err := repo.UpdateWhere(ctx,
		func(inv *models.Invoice) bool { return inv.Status == models.InvoiceStatusSent },
		func(inv *models.Invoice) { inv.Status = models.InvoiceStatusOverdue })
	require.NoError(t, err)
	require.Len(t, changed, 1)

	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, got.Status)

	changed, err = repo.UpdateWhere(ctx,
		func(inv *models.Invoice) bool { return inv.Status == models.InvoiceStatusSent },
		func(inv *models.Invoice) {})
	require.NoError(t, err)
	assert.Empty(t, changed)

	removed, err := repo.Delete(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}
