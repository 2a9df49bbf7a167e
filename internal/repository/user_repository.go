package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
)

// UserRepository 用户仓储接口。Email 一律按小写存取。
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, hashed string) error
	SetVerified(ctx context.Context, id string) error
	SetDeviceToken(ctx context.Context, id, token string) error
	// ListDeviceTokens 返回所有活跃用户的非空推送 token
	ListDeviceTokens(ctx context.Context) ([]string, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hashed string) error {
	return r.updateColumn(ctx, id, "password", hashed)
}

func (r *userRepository) SetVerified(ctx context.Context, id string) error {
	return r.updateColumn(ctx, id, "is_verified", true)
}

// SetDeviceToken 只允许活跃用户更新
func (r *userRepository) SetDeviceToken(ctx context.Context, id, token string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("device_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) ListDeviceTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_active = ? AND device_token IS NOT NULL AND device_token <> ''", true).
		Order("created_at").
		Pluck("device_token", &tokens).Error
	return tokens, err
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*model.User, int64, error) {
	var (
		users []*model.User
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
