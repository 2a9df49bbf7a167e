package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/pkg/database"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/password"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

type sample struct {
	title, description, company string
	category                    model.Category
}

var samples = []sample{
	{"Грант на обучение в Европе", "Грант покрывает полную стоимость обучения и проживания.", "European Grants Foundation", model.CategoryGrant},
	{"Летняя стажировка в IT", "Оплачиваемая стажировка для студентов старших курсов.", "Tech Corp", model.CategoryInternship},
	{"Фестиваль науки", "Открытые лекции и мастер-классы.", "", model.CategoryEvent},
	{"Олимпиада по математике", "Отборочный этап для школьников 9-11 классов.", "МГУ", model.CategoryOlympiad},
	{"Курс по анализу данных", "Онлайн-курс, 8 недель.", "Data School", model.CategoryCourse},
}

// 环境变量：N 活动数量（默认 30），STAFF_EMAIL/STAFF_PASSWORD 可选，创建管理员
func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = logger.Sync() }()

	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	events := repository.NewEventRepository(db)
	users := repository.NewUserRepository(db)

	n := 30
	if s := os.Getenv("N"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			n = v
		}
	}

	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		s := samples[i%len(samples)]
		e := &model.Event{
			EventID:     uuid.NewString(),
			Title:       fmt.Sprintf("%s #%d", s.title, i+1),
			Description: s.description,
			Image:       "media/images/" + uuid.NewString() + ".png",
			Deadline:    model.NewDate(now.AddDate(0, 1, 0)),
			TypesEvent:  s.category,
			TypeURL:     "https://example.com",
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if s.company != "" {
			company := s.company
			e.Company = &company
		}
		if err := events.Create(ctx, e); err != nil {
			logger.Fatal("seed event failed", zap.Int("index", i), zap.Error(err))
		}
	}
	logger.Info("events seeded", zap.Int("count", n))

	email := os.Getenv("STAFF_EMAIL")
	if email == "" {
		return
	}
	pw := os.Getenv("STAFF_PASSWORD")
	if problems := password.Validate(pw); len(problems) > 0 {
		logger.Fatal("staff password rejected", zap.Error(errors.Join(problems...)))
	}
	exists := must(users.EmailExists(ctx, email))
	if exists {
		logger.Info("staff user already exists", zap.String("email", email))
		return
	}
	staff := &model.User{
		ID:         uuid.NewString(),
		Email:      email,
		Password:   must(password.Hash(pw)),
		FullName:   "Administrator",
		IsVerified: true,
		IsActive:   true,
		IsStaff:    true,
	}
	if err := users.Create(ctx, staff); err != nil {
		logger.Fatal("seed staff user failed", zap.Error(err))
	}
	logger.Info("staff user created", zap.String("email", staff.Email))
}
