package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/cache"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/pkg/logger"
)

// EventQuery 活动列表查询参数
type EventQuery struct {
	Query    string
	Category model.Category
	Ordering string
	Pagination
}

// EventDetail 活动详情，附带当前用户的台账状态
type EventDetail struct {
	model.Event
	IsViewed bool `json:"is_viewed"`
	IsLiked  bool `json:"is_liked"`
}

// CreateEventInput 创建活动的入参，校验由 handler 的 binding 完成
type CreateEventInput struct {
	Title       string         `json:"title" binding:"required,max=200"`
	Description string         `json:"description"`
	Image       string         `json:"image" binding:"omitempty,max=512"`
	Deadline    model.Date     `json:"deadline"`
	TypesEvent  model.Category `json:"types_event" binding:"required,event_category"`
	TypeURL     string         `json:"type_url" binding:"required,url,max=512"`
	Company     *string        `json:"company" binding:"omitempty,max=100"`
}

// Notifier 新活动创建后的推送入口
type Notifier interface {
	Enqueue(e model.Event) bool
}

type EventService interface {
	ListEvents(ctx context.Context, q EventQuery) (*EventPage, error)
	GetEventDetail(ctx context.Context, eventID, userID string) (*EventDetail, error)
	CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	EventStats(ctx context.Context, eventID string) (*repository.EventStats, error)
}

type eventService struct {
	events   repository.EventRepository
	listing  *cache.EventListCache
	notifier Notifier
}

// NewEventService notifier 可以为 nil，此时创建活动不会推送
func NewEventService(events repository.EventRepository, listing *cache.EventListCache, notifier Notifier) EventService {
	return &eventService{events: events, listing: listing, notifier: notifier}
}

func (s *eventService) ListEvents(ctx context.Context, q EventQuery) (*EventPage, error) {
	if err := checkCategory(q.Category); err != nil {
		return nil, err
	}
	p := q.Pagination.Normalize()
	filter := repository.EventFilter{
		Query:    strings.TrimSpace(q.Query),
		Category: q.Category,
		Ordering: repository.NormalizeOrdering(q.Ordering),
		Offset:   p.Offset,
		Limit:    p.Limit,
	}
	load := func(ctx context.Context) (*EventPage, error) {
		events, total, err := s.events.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &EventPage{Count: total, Events: events}, nil
	}
	if s.listing == nil {
		return load(ctx)
	}
	key := cache.EventListKey(filter.Query, filter.Category, filter.Ordering, filter.Limit, filter.Offset)
	return s.listing.Fetch(ctx, key, load)
}

// GetEventDetail 每次调用都计一次点击（不去重），并把活动记为已浏览
func (s *eventService) GetEventDetail(ctx context.Context, eventID, userID string) (*EventDetail, error) {
	if err := checkEventID(eventID); err != nil {
		return nil, err
	}
	event, entry, err := s.events.OpenDetail(ctx, eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	detail := &EventDetail{Event: *event}
	if entry != nil {
		detail.IsViewed = entry.IsViewed
		detail.IsLiked = entry.IsLiked
	}
	return detail, nil
}

func (s *eventService) CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error) {
	if !in.TypesEvent.Valid() || strings.TrimSpace(in.Title) == "" {
		return nil, ErrInvalidInput
	}
	if in.Deadline.IsZero() {
		return nil, &ValidationError{Field: "deadline", Messages: []string{"this field is required"}}
	}
	now := time.Now().UTC()
	e := &model.Event{
		EventID:     uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Image:       in.Image,
		Deadline:    in.Deadline,
		TypesEvent:  in.TypesEvent,
		TypeURL:     in.TypeURL,
		Company:     in.Company,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.Info("event created", zap.String("event_id", e.EventID), zap.String("type", string(e.TypesEvent)))

	if s.notifier != nil {
		s.notifier.Enqueue(*e)
	}
	return e, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID string) error {
	if err := checkEventID(eventID); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

func (s *eventService) EventStats(ctx context.Context, eventID string) (*repository.EventStats, error) {
	if err := checkEventID(eventID); err != nil {
		return nil, err
	}
	stats, err := s.events.Stats(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return stats, nil
}
