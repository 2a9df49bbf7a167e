package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/internal/api"
	"github.com/d60-Lab/eventhub/internal/api/handler"
	"github.com/d60-Lab/eventhub/internal/cache"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/auth"
	"github.com/d60-Lab/eventhub/pkg/database"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/mailer"
	"github.com/d60-Lab/eventhub/pkg/push"
	"github.com/d60-Lab/eventhub/pkg/tracing"
)

// @title EventHub API
// @version 1.0
// @description 活动、收藏、浏览台账与密码重置服务
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Fatal("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// 列表缓存与黑名单都依赖 redis，启动时不可用直接退出
		logger.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	var pusher push.Sender = push.Noop{}
	if cfg.Push.Enabled {
		fcm, err := push.NewFCM(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logger.Fatal("fcm init failed", zap.Error(err))
		}
		pusher = fcm
	}
	mail := mailer.New(cfg.Mail)

	users := repository.NewUserRepository(db)
	events := repository.NewEventRepository(db)
	ledger := repository.NewInteractionRepository(db)
	resets := repository.NewPasswordResetRepository(db)

	dispatcher := service.NewNotificationDispatcher(users, pusher, cfg.Push.Title, cfg.Push.QueueSize)
	stopDispatcher := dispatcher.Start(cfg.Push.Workers)

	authSvc := service.NewAuthService(users, auth.NewIssuer(cfg.JWT), cache.NewTokenBlacklist(rdb), mail, cfg.Auth)
	userSvc := service.NewUserService(users)
	h := handler.New(
		service.NewEventService(events, cache.NewEventListCache(rdb, cfg.Cache.EventListTTL), dispatcher),
		service.NewInteractionService(users, events, ledger),
		service.NewPasswordResetService(users, resets, mail, cfg.Reset.TokenTTL),
		authSvc,
		userSvc,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, h, authSvc, userSvc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("dispatcher stop", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
