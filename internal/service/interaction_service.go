package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
)

// UserActions 用户交互记录的一页：本页中收藏/浏览过的活动 ID，以及分类下的未读总数
type UserActions struct {
	Count         int64    `json:"-"`
	LikedEvents   []string `json:"liked_events"`
	ViewedEvents  []string `json:"viewed_events"`
	UnviewedCount int64    `json:"unviewed_count"`
}

// InteractionService 交互台账服务：浏览、收藏、外链点击及其聚合查询
type InteractionService interface {
	RecordView(ctx context.Context, userID, eventID string) error
	AddFavorite(ctx context.Context, userID, eventID string) error
	RemoveFavorite(ctx context.Context, userID, eventID string) error
	ToggleFavorite(ctx context.Context, userID, eventID string, on bool) error
	RecordLinkClick(ctx context.Context, userID, eventID string) error

	ListFavorites(ctx context.Context, userID string, p Pagination) (*EventPage, error)
	ListUnviewed(ctx context.Context, userID string, category model.Category, p Pagination) (*EventPage, error)
	CountUnviewedByCategory(ctx context.Context, userID string) (map[model.Category]int64, error)
	ListUserActions(ctx context.Context, userID string, category model.Category, p Pagination) (*UserActions, error)
}

type interactionService struct {
	users  repository.UserRepository
	events repository.EventRepository
	ledger repository.InteractionRepository
	now    func() time.Time
}

func NewInteractionService(users repository.UserRepository, events repository.EventRepository, ledger repository.InteractionRepository) InteractionService {
	return &interactionService{users: users, events: events, ledger: ledger, now: time.Now}
}

func (s *interactionService) RecordView(ctx context.Context, userID, eventID string) error {
	if err := s.ensure(ctx, userID, eventID); err != nil {
		return err
	}
	return s.ledger.UpsertView(ctx, userID, eventID)
}

func (s *interactionService) AddFavorite(ctx context.Context, userID, eventID string) error {
	if err := s.ensure(ctx, userID, eventID); err != nil {
		return err
	}
	changed, err := s.ledger.AddLike(ctx, userID, eventID, s.now().UTC())
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyFavorited
	}
	return nil
}

func (s *interactionService) RemoveFavorite(ctx context.Context, userID, eventID string) error {
	if err := s.ensure(ctx, userID, eventID); err != nil {
		return err
	}
	changed, err := s.ledger.RemoveLike(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !changed {
		return ErrNotFavorited
	}
	return nil
}

func (s *interactionService) ToggleFavorite(ctx context.Context, userID, eventID string, on bool) error {
	if on {
		return s.AddFavorite(ctx, userID, eventID)
	}
	return s.RemoveFavorite(ctx, userID, eventID)
}

func (s *interactionService) RecordLinkClick(ctx context.Context, userID, eventID string) error {
	if err := s.ensure(ctx, userID, eventID); err != nil {
		return err
	}
	_, err := s.ledger.UpsertLink(ctx, userID, eventID)
	return err
}

func (s *interactionService) ListFavorites(ctx context.Context, userID string, p Pagination) (*EventPage, error) {
	p = p.Normalize()
	events, total, err := s.ledger.ListFavorites(ctx, userID, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return &EventPage{Count: total, Events: events}, nil
}

func (s *interactionService) ListUnviewed(ctx context.Context, userID string, category model.Category, p Pagination) (*EventPage, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	p = p.Normalize()
	events, total, err := s.ledger.ListUnviewed(ctx, userID, category, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return &EventPage{Count: total, Events: events}, nil
}

func (s *interactionService) CountUnviewedByCategory(ctx context.Context, userID string) (map[model.Category]int64, error) {
	return s.ledger.CountUnviewedByCategory(ctx, userID)
}

func (s *interactionService) ListUserActions(ctx context.Context, userID string, category model.Category, p Pagination) (*UserActions, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	p = p.Normalize()
	rows, total, err := s.ledger.ListUserActions(ctx, userID, category, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	unviewed, err := s.ledger.CountUnviewed(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	out := &UserActions{
		Count:         total,
		LikedEvents:   []string{},
		ViewedEvents:  []string{},
		UnviewedCount: unviewed,
	}
	for _, r := range rows {
		if r.IsLiked {
			out.LikedEvents = append(out.LikedEvents, r.EventID)
		}
		if r.IsViewed {
			out.ViewedEvents = append(out.ViewedEvents, r.EventID)
		}
	}
	return out, nil
}

// ensure 校验事件 ID 格式，并确认用户与活动都存在
func (s *interactionService) ensure(ctx context.Context, userID, eventID string) error {
	if err := checkEventID(eventID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	ok, err := s.events.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEventNotFound
	}
	return nil
}

func checkEventID(eventID string) error {
	if eventID == "" {
		return ErrInvalidInput
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return ErrInvalidInput
	}
	return nil
}

func checkCategory(c model.Category) error {
	if c != "" && !c.Valid() {
		return ErrInvalidInput
	}
	return nil
}
