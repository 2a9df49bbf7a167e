package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/testutil"
)

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{ID: uuid.NewString(), Email: " Alice@Example.COM ", Password: "h", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "alice@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	exists, err := repo.EmailExists(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DeviceTokens(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := testutil.SeedUser(t, db, "a@example.com", testutil.WithDeviceToken("tok-a"))
	testutil.SeedUser(t, db, "b@example.com", testutil.WithDeviceToken(""))
	testutil.SeedUser(t, db, "c@example.com")
	inactive := testutil.SeedUser(t, db, "d@example.com", testutil.WithDeviceToken("tok-d"))
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	tokens, err := repo.ListDeviceTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, tokens)

	require.NoError(t, repo.SetDeviceToken(ctx, a.ID, "tok-a2"))
	tokens, err = repo.ListDeviceTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a2"}, tokens)

	assert.ErrorIs(t, repo.SetDeviceToken(ctx, inactive.ID, "x"), gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdatesAndList(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "a@example.com", testutil.Unverified())
	testutil.SeedUser(t, db, "b@example.com")

	require.NoError(t, repo.SetVerified(ctx, u.ID))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "new-hash", got.Password)

	assert.ErrorIs(t, repo.SetVerified(ctx, "missing"), gorm.ErrRecordNotFound)

	users, total, err := repo.List(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 1)
}

func TestUserRepository_CreateErrors(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{ID: uuid.NewString(), Email: "off@example.com", Password: "h", IsActive: false}
	require.NoError(t, repo.Create(ctx, u))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	dup := &model.User{ID: uuid.NewString(), Email: "OFF@example.com", Password: "h", IsActive: true}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)
}
