package model

import "time"

// PasswordReset 密码重置码。过期时间不落库，由 CreatedAt + TTL 计算。
// 部分唯一索引保证每个用户同时至多一条未使用的记录。
type PasswordReset struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"user_id" gorm:"type:varchar(36);not null;index;uniqueIndex:ux_reset_user_unused,where:used = false"`
	ResetToken string    `json:"-" gorm:"type:varchar(6);not null"`
	CreatedAt  time.Time `json:"created_at"`
	Used       bool      `json:"used" gorm:"not null;default:false"`
}

func (PasswordReset) TableName() string { return "password_resets" }

// Expired 判断在 now 时刻是否已超过有效期
func (p *PasswordReset) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(p.CreatedAt.Add(ttl))
}
