package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/testutil"
)

func TestRotate_CreatesThenRotates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPasswordResetRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "a@example.com")

	first, err := repo.Rotate(ctx, u.ID, "AAAAAA", base)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.ResetToken)

	second, err := repo.Rotate(ctx, u.ID, "BBBBBB", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "rotation reuses the unused row")
	assert.Equal(t, "BBBBBB", second.ResetToken)
	assert.True(t, second.CreatedAt.Equal(base.Add(time.Hour)), "rotation restarts the window")

	var unused int64
	require.NoError(t, db.Model(&model.PasswordReset{}).Where("user_id = ? AND used = ?", u.ID, false).Count(&unused).Error)
	assert.Equal(t, int64(1), unused)

	_, err = repo.FindUnused(ctx, u.ID, "AAAAAA")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRedeem_SingleUse(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPasswordResetRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "a@example.com")

	pr, err := repo.Rotate(ctx, u.ID, "CCCCCC", base)
	require.NoError(t, err)

	require.NoError(t, repo.Redeem(ctx, pr.ID, u.ID, "hash-1"))
	assert.ErrorIs(t, repo.Redeem(ctx, pr.ID, u.ID, "hash-2"), ErrResetConsumed)

	var got model.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, "hash-1", got.Password, "failed redeem rolls back the password update")

	// 兑换后可以再申请新的重置码
	next, err := repo.Rotate(ctx, u.ID, "DDDDDD", base.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, pr.ID, next.ID)
}
