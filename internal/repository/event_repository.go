package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
)

// DefaultOrdering 活动列表的默认排序：最新创建在前
const DefaultOrdering = "-created_at"

// 允许排序的字段白名单
var orderableFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"title":       true,
	"deadline":    true,
	"click":       true,
	"types_event": true,
	"company":     true,
}

// NormalizeOrdering 不在白名单内的排序字段回落到默认排序
func NormalizeOrdering(ordering string) string {
	ordering = strings.TrimSpace(ordering)
	if orderableFields[strings.TrimPrefix(ordering, "-")] {
		return ordering
	}
	return DefaultOrdering
}

// EventFilter 列表查询条件
type EventFilter struct {
	Query    string
	Category model.Category
	Ordering string
	Offset   int
	Limit    int
}

// TypeStats 某一用户分类下的交互计数
type TypeStats struct {
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
	Links int64 `json:"links"`
}

// EventStats 单个活动的受众统计
type EventStats struct {
	EventID    string                       `json:"event_id"`
	Click      int64                        `json:"click"`
	Totals     TypeStats                    `json:"totals"`
	ByUserType map[model.UserType]TypeStats `json:"by_user_type"`
}

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	Get(ctx context.Context, eventID string) (*model.Event, error)
	Exists(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
	List(ctx context.Context, f EventFilter) ([]model.Event, int64, error)
	IncrementClick(ctx context.Context, eventID string) error
	// OpenDetail 一个事务内：点击数 +1、记录浏览、重新读取活动与台账。
	// 用户不存在返回 gorm.ErrForeignKeyViolated
	OpenDetail(ctx context.Context, eventID, userID string) (*model.Event, *model.EventInteraction, error)
	Stats(ctx context.Context, eventID string) (*EventStats, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepository{db: db} }

func (r *eventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *eventRepository) Get(ctx context.Context, eventID string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Where("event_id = ?", eventID).Count(&cnt).Error
	return cnt > 0, err
}

// Delete 台账记录由外键级联删除；SQLite 未开启外键时这里也会手动清理
func (r *eventRepository) Delete(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&model.EventInteraction{}).Error; err != nil {
			return err
		}
		res := tx.Where("event_id = ?", eventID).Delete(&model.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *eventRepository) List(ctx context.Context, f EventFilter) ([]model.Event, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q := strings.TrimSpace(f.Query); q != "" {
			db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(q))+"%")
		}
		if f.Category != "" {
			db = db.Where("types_event = ?", f.Category)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Event{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.Event
	err := r.db.WithContext(ctx).Scopes(filter).
		Order(orderClause(f.Ordering)).Order("event_id").
		Offset(f.Offset).Limit(f.Limit).
		Find(&events).Error
	return events, total, err
}

// IncrementClick 在存储层原子自增，不做读改写
func (r *eventRepository) IncrementClick(ctx context.Context, eventID string) error {
	res := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("event_id = ?", eventID).
		UpdateColumn("click", gorm.Expr("click + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *eventRepository) OpenDetail(ctx context.Context, eventID, userID string) (*model.Event, *model.EventInteraction, error) {
	var (
		event *model.Event
		entry *model.EventInteraction
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := NewEventRepository(tx)
		ledger := NewInteractionRepository(tx)

		// 用户不存在时不计点击
		var users int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return gorm.ErrForeignKeyViolated
		}
		if err := events.IncrementClick(ctx, eventID); err != nil {
			return err
		}
		if err := ledger.UpsertView(ctx, userID, eventID); err != nil {
			return err
		}

		var err error
		if event, err = events.Get(ctx, eventID); err != nil {
			return err
		}
		entry, err = ledger.Get(ctx, userID, eventID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return event, entry, nil
}

func (r *eventRepository) Stats(ctx context.Context, eventID string) (*EventStats, error) {
	event, err := r.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		UserType string
		Views    int64
		Likes    int64
		Links    int64
	}
	err = r.db.WithContext(ctx).Table("event_interactions AS ei").
		Select("COALESCE(users.type, '') AS user_type, "+
			"SUM(CASE WHEN ei.is_viewed THEN 1 ELSE 0 END) AS views, "+
			"SUM(CASE WHEN ei.is_liked THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN ei.is_linked THEN 1 ELSE 0 END) AS links").
		Joins("JOIN users ON users.id = ei.user_id").
		Where("ei.event_id = ?", eventID).
		Group("users.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &EventStats{
		EventID:    eventID,
		Click:      event.Click,
		ByUserType: make(map[model.UserType]TypeStats, len(model.UserTypes)),
	}
	for _, t := range model.UserTypes {
		stats.ByUserType[t] = TypeStats{}
	}
	for _, row := range rows {
		s := TypeStats{Views: row.Views, Likes: row.Likes, Links: row.Links}
		stats.Totals.Views += s.Views
		stats.Totals.Likes += s.Likes
		stats.Totals.Links += s.Links
		if t := model.UserType(row.UserType); t.Valid() {
			stats.ByUserType[t] = s
		}
	}
	return stats, nil
}

func orderClause(ordering string) string {
	ordering = NormalizeOrdering(ordering)
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-") + " DESC"
	}
	return ordering + " ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
