package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
)

// ErrResetConsumed 重置码在兑换时已被使用（并发重复提交）
var ErrResetConsumed = errors.New("password reset already consumed")

type PasswordResetRepository interface {
	// Rotate 用户已有未使用的重置码时替换 code 并重置 created_at，否则新建一条
	Rotate(ctx context.Context, userID, code string, now time.Time) (*model.PasswordReset, error)
	FindUnused(ctx context.Context, userID, code string) (*model.PasswordReset, error)
	// Redeem 同一事务内更新密码哈希并把重置码标记为已使用
	Redeem(ctx context.Context, resetID, userID, hashedPassword string) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Rotate(ctx context.Context, userID, code string, now time.Time) (*model.PasswordReset, error) {
	rotated, err := r.rotateUnused(ctx, userID, code, now)
	if err != nil {
		return nil, err
	}
	if !rotated {
		pr := &model.PasswordReset{ID: uuid.NewString(), UserID: userID, ResetToken: code, CreatedAt: now}
		if cErr := r.db.WithContext(ctx).Create(pr).Error; cErr != nil {
			// 并发请求抢先建了一条：部分唯一索引拒绝第二条，改为轮换它
			if rotated, err = r.rotateUnused(ctx, userID, code, now); err != nil || !rotated {
				return nil, cErr
			}
		}
	}
	return r.FindUnused(ctx, userID, code)
}

func (r *passwordResetRepository) rotateUnused(ctx context.Context, userID, code string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PasswordReset{}).
		Where("user_id = ? AND used = ?", userID, false).
		Updates(map[string]interface{}{"reset_token": code, "created_at": now})
	return res.RowsAffected > 0, res.Error
}

func (r *passwordResetRepository) FindUnused(ctx context.Context, userID, code string) (*model.PasswordReset, error) {
	var pr model.PasswordReset
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reset_token = ? AND used = ?", userID, code, false).
		First(&pr).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *passwordResetRepository) Redeem(ctx context.Context, resetID, userID, hashedPassword string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", userID).Update("password", hashedPassword)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		res = tx.Model(&model.PasswordReset{}).
			Where("id = ? AND used = ?", resetID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResetConsumed
		}
		return nil
	})
}
