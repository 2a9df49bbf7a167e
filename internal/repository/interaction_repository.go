package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/eventhub/internal/model"
)

// InteractionRepository 交互台账仓储。
// 所有写操作都是单条带条件的 upsert/update，依赖 (user_id, event_id) 唯一索引保证并发下只有一行。
type InteractionRepository interface {
	Get(ctx context.Context, userID, eventID string) (*model.EventInteraction, error)
	UpsertView(ctx context.Context, userID, eventID string) error
	// AddLike 仅在 is_liked 由 false 变为 true 时生效，返回是否发生了变化
	AddLike(ctx context.Context, userID, eventID string, at time.Time) (bool, error)
	// RemoveLike 仅在当前 is_liked = true 时生效，返回是否发生了变化
	RemoveLike(ctx context.Context, userID, eventID string) (bool, error)
	// UpsertLink 已标记过时不做任何修改，返回是否发生了变化
	UpsertLink(ctx context.Context, userID, eventID string) (bool, error)

	ListFavorites(ctx context.Context, userID string, offset, limit int) ([]model.Event, int64, error)
	ListUnviewed(ctx context.Context, userID string, category model.Category, offset, limit int) ([]model.Event, int64, error)
	CountUnviewed(ctx context.Context, userID string, category model.Category) (int64, error)
	CountUnviewedByCategory(ctx context.Context, userID string) (map[model.Category]int64, error)
	ListUserActions(ctx context.Context, userID string, category model.Category, offset, limit int) ([]model.EventInteraction, int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

var interactionConflict = []clause.Column{{Name: "user_id"}, {Name: "event_id"}}

func (r *interactionRepository) Get(ctx context.Context, userID, eventID string) (*model.EventInteraction, error) {
	var e model.EventInteraction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *interactionRepository) UpsertView(ctx context.Context, userID, eventID string) error {
	e := newInteraction(userID, eventID)
	e.IsViewed = true
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   interactionConflict,
		DoUpdates: clause.Assignments(map[string]interface{}{"is_viewed": true}),
	}).Create(e).Error
}

func (r *interactionRepository) AddLike(ctx context.Context, userID, eventID string, at time.Time) (bool, error) {
	e := newInteraction(userID, eventID)
	e.IsLiked = true
	e.LikedAt = &at
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   interactionConflict,
		DoUpdates: clause.Assignments(map[string]interface{}{"is_liked": true, "liked_at": at}),
		Where:     flagIs("is_liked", false),
	}).Create(e)
	return res.RowsAffected > 0, res.Error
}

func (r *interactionRepository) RemoveLike(ctx context.Context, userID, eventID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.EventInteraction{}).
		Where("user_id = ? AND event_id = ? AND is_liked = ?", userID, eventID, true).
		Update("is_liked", false)
	return res.RowsAffected > 0, res.Error
}

func (r *interactionRepository) UpsertLink(ctx context.Context, userID, eventID string) (bool, error) {
	e := newInteraction(userID, eventID)
	e.IsLinked = true
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   interactionConflict,
		DoUpdates: clause.Assignments(map[string]interface{}{"is_linked": true}),
		Where:     flagIs("is_linked", false),
	}).Create(e)
	return res.RowsAffected > 0, res.Error
}

func (r *interactionRepository) ListFavorites(ctx context.Context, userID string, offset, limit int) ([]model.Event, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.Event{}).
			Joins("JOIN event_interactions ei ON ei.event_id = events.event_id").
			Where("ei.user_id = ? AND ei.is_liked = ?", userID, true)
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []model.Event
	err := r.db.WithContext(ctx).Scopes(scope).
		Select("events.*").
		Order("ei.liked_at DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error
	return events, total, err
}

func (r *interactionRepository) ListUnviewed(ctx context.Context, userID string, category model.Category, offset, limit int) ([]model.Event, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Event{}).
		Scopes(unviewedBy(userID), inCategory(category)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []model.Event
	err := r.db.WithContext(ctx).
		Scopes(unviewedBy(userID), inCategory(category)).
		Order("created_at DESC").Order("event_id").
		Offset(offset).Limit(limit).
		Find(&events).Error
	return events, total, err
}

func (r *interactionRepository) CountUnviewed(ctx context.Context, userID string, category model.Category) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Scopes(unviewedBy(userID), inCategory(category)).
		Count(&total).Error
	return total, err
}

// CountUnviewedByCategory 结果总是包含全部类型，没有未读时为 0
func (r *interactionRepository) CountUnviewedByCategory(ctx context.Context, userID string) (map[model.Category]int64, error) {
	var rows []struct {
		TypesEvent model.Category
		Cnt        int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Event{}).
		Select("types_event, COUNT(*) AS cnt").
		Scopes(unviewedBy(userID)).
		Group("types_event").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[model.Category]int64, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = 0
	}
	for _, row := range rows {
		if _, ok := out[row.TypesEvent]; ok {
			out[row.TypesEvent] = row.Cnt
		}
	}
	return out, nil
}

func (r *interactionRepository) ListUserActions(ctx context.Context, userID string, category model.Category, offset, limit int) ([]model.EventInteraction, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.EventInteraction{}).Where("event_interactions.user_id = ?", userID)
		if category != "" {
			db = db.Joins("JOIN events ON events.event_id = event_interactions.event_id").
				Where("events.types_event = ?", category)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.EventInteraction
	err := r.db.WithContext(ctx).Scopes(scope).
		Select("event_interactions.*").
		Order("event_interactions.created_at DESC").Order("event_interactions.id").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func newInteraction(userID, eventID string) *model.EventInteraction {
	return &model.EventInteraction{ID: uuid.NewString(), UserID: userID, EventID: eventID}
}

// flagIs 生成 ON CONFLICT ... DO UPDATE 的 WHERE 条件
func flagIs(column string, value bool) clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: model.EventInteraction{}.TableName(), Name: column}, Value: value},
	}}
}

func unviewedBy(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT EXISTS (SELECT 1 FROM event_interactions ei "+
			"WHERE ei.event_id = events.event_id AND ei.user_id = ? AND ei.is_viewed = ?)", userID, true)
	}
}

func inCategory(category model.Category) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if category == "" {
			return db
		}
		return db.Where("types_event = ?", category)
	}
}
