// Package testutil 提供测试用的内存数据库、Redis 与外部依赖替身。
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/pkg/database"
	"github.com/d60-Lab/eventhub/pkg/push"
)

var dbSeq atomic.Int64

// NewDB 打开一个独立的内存 SQLite 库并完成迁移。
// 单连接保证所有 goroutine 看到同一个库。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("eventhub_%d_%d", time.Now().UnixNano(), dbSeq.Add(1))
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
		AutoMigrate:  true,
	}}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// NewRedis 启动 miniredis 并返回客户端
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// UserOption 调整 SeedUser 创建的用户
type UserOption func(*model.User)

func WithType(tp model.UserType) UserOption { return func(u *model.User) { u.Type = &tp } }
func WithDeviceToken(tok string) UserOption {
	return func(u *model.User) { u.DeviceToken = &tok }
}
func AsStaff() UserOption      { return func(u *model.User) { u.IsStaff = true } }
func Unverified() UserOption   { return func(u *model.User) { u.IsVerified = false } }
func WithPassword(pw string) UserOption {
	return func(u *model.User) {
		h, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		u.Password = string(h)
	}
}

// SeedUser 直接写库创建一个已验证的活跃用户
func SeedUser(t testing.TB, db *gorm.DB, email string, opts ...UserOption) *model.User {
	t.Helper()
	u := &model.User{
		ID:         uuid.NewString(),
		Email:      strings.ToLower(email),
		Password:   "x",
		FullName:   "Test " + email,
		Age:        20,
		IsVerified: true,
		IsActive:   true,
	}
	for _, o := range opts {
		o(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedEvent 直接写库创建活动，createdAt 决定默认排序
func SeedEvent(t testing.TB, db *gorm.DB, title string, cat model.Category, createdAt time.Time) *model.Event {
	t.Helper()
	e := &model.Event{
		EventID:     uuid.NewString(),
		Title:       title,
		Description: "<p>" + title + "</p>",
		Image:       "media/images/" + uuid.NewString() + ".png",
		Deadline:    model.NewDate(createdAt.Add(30 * 24 * time.Hour)),
		TypesEvent:  cat,
		TypeURL:     "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// Mail 一封被记录的邮件
type Mail struct {
	To      string
	Subject string
	Body    string
}

// FakeMailer 记录发送的邮件，可配置失败
type FakeMailer struct {
	mu   sync.Mutex
	sent []Mail
	Err  error
}

func (m *FakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *FakeMailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

// Last 返回最后一封邮件，没有时返回零值
func (m *FakeMailer) Last() Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Mail{}
	}
	return m.sent[len(m.sent)-1]
}

// FakePusher 把每次推送写入 Messages 通道
type FakePusher struct {
	Messages chan push.Message
	Err      error
}

func NewFakePusher() *FakePusher {
	return &FakePusher{Messages: make(chan push.Message, 16)}
}

func (p *FakePusher) Send(_ context.Context, msg push.Message) (push.Result, error) {
	select {
	case p.Messages <- msg:
	default:
	}
	if p.Err != nil {
		return push.Result{FailureCount: len(msg.Tokens)}, p.Err
	}
	return push.Result{SuccessCount: len(msg.Tokens)}, nil
}
