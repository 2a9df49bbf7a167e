package model

import "time"

// Category 活动类型（封闭枚举）
type Category string

const (
	CategoryGrant      Category = "grant"
	CategoryInternship Category = "internship"
	CategoryEvent      Category = "event"
	CategoryOlympiad   Category = "olympiad"
	CategoryCourse     Category = "course"
)

// Categories 全部活动类型，聚合统计时按此顺序补零
var Categories = []Category{
	CategoryGrant,
	CategoryInternship,
	CategoryEvent,
	CategoryOlympiad,
	CategoryCourse,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Event 活动。EventID 使用随机 UUID，防止按序枚举。
// Click 只通过 click = click + 1 原子自增，从不重置。
type Event struct {
	EventID     string    `json:"event_id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null;index:idx_event_title"`
	Description string    `json:"description" gorm:"type:text"`
	Image       string    `json:"image" gorm:"type:varchar(512)"`
	Deadline    Date      `json:"deadline" gorm:"type:date;not null"`
	TypesEvent  Category  `json:"types_event" gorm:"type:varchar(100);not null;index:idx_event_type_created"`
	TypeURL     string    `json:"type_url" gorm:"type:varchar(512);not null"`
	Company     *string   `json:"company" gorm:"type:varchar(100)"`
	Click       int64     `json:"click" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_event_type_created"`
	UpdatedAt   time.Time `json:"updated_at"`

	Interactions []EventInteraction `json:"-" gorm:"foreignKey:EventID;references:EventID;constraint:OnDelete:CASCADE"`
}

func (Event) TableName() string { return "events" }
