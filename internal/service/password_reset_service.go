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

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/mailer"
	"github.com/d60-Lab/eventhub/pkg/password"
)

const resetCodeLength = 6

const resetSubject = "Сброс пароля"

const resetBody = `Здравствуйте, %s!

Вы запросили сброс пароля. Используйте следующий код для установки нового пароля:

%s

Код действителен в течение 24 часов.

Если вы не запрашивали сброс пароля, просто проигнорируйте это сообщение.

С уважением,
Команда поддержки
`

// ConfirmResetInput 兑换重置码的入参
type ConfirmResetInput struct {
	Email     string `json:"email" binding:"required,email"`
	Code      string `json:"code" binding:"required,len=6"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

// PasswordResetService 密码重置流程：NoActiveToken → Issued → (Redeemed | Expired)
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, in ConfirmResetInput) error
}

type passwordResetService struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	mail   mailer.Sender
	ttl    time.Duration
	now    func() time.Time
}

func NewPasswordResetService(users repository.UserRepository, resets repository.PasswordResetRepository, mail mailer.Sender, ttl time.Duration) PasswordResetService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &passwordResetService{users: users, resets: resets, mail: mail, ttl: ttl, now: time.Now}
}

// RequestReset 对未知邮箱返回 ErrUserNotFound。
// 已有未使用的重置码时轮换 code 并重新开始计时。邮件发送失败只记日志。
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	pr, err := s.resets.Rotate(ctx, user.ID, newResetCode(), s.now().UTC())
	if err != nil {
		return err
	}

	if err := s.mail.Send(user.Email, resetSubject, resetMessage(user, pr.ResetToken)); err != nil {
		logger.Error("send password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (s *passwordResetService) ConfirmReset(ctx context.Context, in ConfirmResetInput) error {
	if in.Password != in.Password2 {
		return &ValidationError{Field: "password2", Messages: []string{"passwords do not match"}}
	}
	if problems := password.Validate(in.Password); len(problems) > 0 {
		return newValidationError("password", problems...)
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	pr, err := s.resets.FindUnused(ctx, user.ID, normalizeCode(in.Code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if pr.Expired(s.now(), s.ttl) {
		return ErrTokenExpired
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.resets.Redeem(ctx, pr.ID, user.ID, hashed); err != nil {
		if errors.Is(err, repository.ErrResetConsumed) || errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	logger.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

// newResetCode uuid v4 的前 6 位十六进制，转大写
func newResetCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:resetCodeLength])
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func resetMessage(u *model.User, code string) string {
	name := u.FullName
	if name == "" {
		name = "пользователь"
	}
	return fmt.Sprintf(resetBody, name, code)
}
