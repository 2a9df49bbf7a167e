package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
)

// UserPage 用户列表的一页
type UserPage struct {
	Count int64         `json:"count"`
	Users []*model.User `json:"users"`
}

type UserService interface {
	Me(ctx context.Context, userID string) (*model.User, error)
	// UpdateDeviceToken 仅对活跃用户生效
	UpdateDeviceToken(ctx context.Context, userID, token string) error
	ListUsers(ctx context.Context, p Pagination) (*UserPage, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}
	if err := s.users.SetDeviceToken(ctx, userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, p Pagination) (*UserPage, error) {
	p = p.Normalize()
	users, total, err := s.users.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return &UserPage{Count: total, Users: users}, nil
}
