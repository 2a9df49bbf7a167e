package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/pkg/auth"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/mailer"
	"github.com/d60-Lab/eventhub/pkg/password"
)

const verifySubject = "Подтверждение email"

const verifyBody = `Здравствуйте, %s!

Для подтверждения адреса электронной почты перейдите по ссылке:

%s

Ссылка действительна в течение 24 часов.
`

// RegisterInput 注册入参
type RegisterInput struct {
	Email     string          `json:"email" binding:"required,email,max=254"`
	Password1 string          `json:"password1" binding:"required"`
	Password2 string          `json:"password2" binding:"required"`
	FullName  string          `json:"full_name" binding:"omitempty,max=255"`
	Age       *int            `json:"age" binding:"omitempty,min=1,max=120"`
	Type      *model.UserType `json:"type" binding:"omitempty,user_type"`
}

// LoginResult 登录成功返回的 token 与用户
type LoginResult struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    *model.User `json:"user"`
}

// TokenRevoker 登出黑名单
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	VerifyEmail(ctx context.Context, key string) error
	Login(ctx context.Context, email, pw string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	// Authenticate 校验 access token 并检查黑名单，供中间件使用
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

type authService struct {
	users   repository.UserRepository
	tokens  *auth.Issuer
	revoked TokenRevoker
	mail    mailer.Sender
	cfg     config.AuthConfig
	now     func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *auth.Issuer, revoked TokenRevoker, mail mailer.Sender, cfg config.AuthConfig) AuthService {
	return &authService{users: users, tokens: tokens, revoked: revoked, mail: mail, cfg: cfg, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Password1 != in.Password2 {
		return nil, &ValidationError{Field: "password2", Messages: []string{"passwords do not match"}}
	}
	if problems := password.Validate(in.Password1); len(problems) > 0 {
		return nil, newValidationError("password1", problems...)
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, &ValidationError{Field: "type", Messages: []string{fmt.Sprintf("%q is not a valid choice", *in.Type)}}
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashed, err := password.Hash(in.Password1)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:       uuid.NewString(),
		Email:    in.Email,
		Password: hashed,
		FullName: strings.TrimSpace(in.FullName),
		Type:     in.Type,
		IsActive: true,
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	logger.Info("user registered", zap.String("user_id", u.ID))

	s.sendVerification(u)
	return u, nil
}

func (s *authService) sendVerification(u *model.User) {
	key, err := s.tokens.Generate(u.ID, auth.TokenVerify)
	if err != nil {
		logger.Error("issue verification token failed", zap.String("user_id", u.ID), zap.Error(err))
		return
	}
	name := u.FullName
	if name == "" {
		name = "пользователь"
	}
	link := strings.TrimRight(s.cfg.VerifyURLBase, "/") + "/" + key
	if err := s.mail.Send(u.Email, verifySubject, fmt.Sprintf(verifyBody, name, link)); err != nil {
		logger.Error("send verification email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}

func (s *authService) VerifyEmail(ctx context.Context, key string) error {
	claims, err := s.tokens.Parse(key, auth.TokenVerify)
	if err != nil {
		return ErrInvalidInput
	}
	if err := s.users.SetVerified(ctx, claims.UserID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *authService) Login(ctx context.Context, email, pw string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !password.Verify(pw, u.Password) {
		return nil, ErrInvalidCredentials
	}
	if s.cfg.RequireVerifiedEmail && !u.IsVerified {
		return nil, ErrEmailNotVerified
	}

	pair, err := s.tokens.IssuePair(u.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Access: pair.Access, Refresh: pair.Refresh, User: u}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", ErrUnauthorized
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil || !u.IsActive {
		return "", ErrUnauthorized
	}
	return s.tokens.Generate(u.ID, auth.TokenAccess)
}

// Logout 把 access 与 refresh 的 jti 都加入黑名单；refresh 无效时忽略
func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	now := s.now()
	if access != nil {
		if err := s.revoked.Revoke(ctx, access.ID, access.Remaining(now)); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	rc, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil
	}
	if access != nil && rc.UserID() != access.UserID() {
		return nil
	}
	return s.revoked.Revoke(ctx, rc.ID, rc.Remaining(now))
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *authService) checkRevoked(ctx context.Context, c *auth.Claims) error {
	revoked, err := s.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return ErrUnauthorized
	}
	return nil
}
