package model

import "time"

// EventInteraction 用户与活动的交互记录（浏览/收藏/外链点击）
type EventInteraction struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID  string `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_interaction_user_event;index:idx_interaction_user_created"`
	EventID string `json:"event_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_interaction_user_event;index:idx_interaction_event"`
	// 复合唯一键，保证每个 (user, event) 至多一行
	// ux_interaction_user_event = (user_id, event_id)
	IsViewed  bool       `json:"is_viewed" gorm:"not null;default:false"`
	IsLiked   bool       `json:"is_liked" gorm:"not null;default:false"`
	IsLinked  bool       `json:"is_linked" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at" gorm:"index:idx_interaction_user_created"`
	LikedAt   *time.Time `json:"liked_at"`
}

func (EventInteraction) TableName() string { return "event_interactions" }
