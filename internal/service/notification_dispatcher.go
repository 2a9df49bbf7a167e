package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/push"
)

const (
	clickActionOpenEvent = "OPEN_EVENT_DETAILS"
	dispatchTimeout      = 30 * time.Second
	drainTimeout         = 2 * time.Second
)

type notifyJob struct {
	event model.Event
	enqAt time.Time
}

// NotificationDispatcher 新活动推送的本地异步执行器。
// 推送是 fire-and-forget：失败只记日志并上报 Sentry，不回传、不重试。
type NotificationDispatcher struct {
	users  repository.UserRepository
	pusher push.Sender
	title  string
	ch     chan notifyJob
}

func NewNotificationDispatcher(users repository.UserRepository, pusher push.Sender, title string, queueSize int) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &NotificationDispatcher{users: users, pusher: pusher, title: title, ch: make(chan notifyJob, queueSize)}
}

// Start 启动 workers 个消费者，返回的函数用于停止：先等待队列排空（至多 2s），再等待进行中的推送结束
func (d *NotificationDispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-d.ch:
					d.dispatch(job)
				case <-stopCh:
					return
				}
			}
		}()
	}

	return func(ctx context.Context) error {
		d.waitDrained(ctx)
		close(stopCh)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Enqueue 从不阻塞调用方，队列满时丢弃并告警
func (d *NotificationDispatcher) Enqueue(e model.Event) bool {
	select {
	case d.ch <- notifyJob{event: e, enqAt: time.Now()}:
		return true
	default:
		logger.Warn("notification queue full, drop event", zap.String("event_id", e.EventID))
		return false
	}
}

// QueueLen 返回当前队列长度（采样值）
func (d *NotificationDispatcher) QueueLen() int { return len(d.ch) }

func (d *NotificationDispatcher) waitDrained(ctx context.Context) {
	timeout := time.After(drainTimeout)
	for len(d.ch) > 0 {
		select {
		case <-timeout:
			return
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (d *NotificationDispatcher) dispatch(job notifyJob) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	e := job.event
	log := logger.With(zap.String("event_id", e.EventID), zap.String("title", e.Title))

	tokens, err := d.users.ListDeviceTokens(ctx)
	if err != nil {
		log.Error("load device tokens failed", zap.Error(err))
		sentry.CaptureException(fmt.Errorf("load device tokens for event %s: %w", e.EventID, err))
		return
	}
	if len(tokens) == 0 {
		log.Warn("no device tokens, skip notification")
		return
	}

	res, err := d.pusher.Send(ctx, push.Message{
		Title:  d.title,
		Body:   e.Title,
		Tokens: tokens,
		Data:   notificationData(e),
	})
	log.Info("event notification sent",
		zap.Int("success", res.SuccessCount),
		zap.Int("failure", res.FailureCount),
		zap.Duration("queued", time.Since(job.enqAt)))
	if err != nil {
		log.Error("event notification failed", zap.Error(err))
		sentry.CaptureException(fmt.Errorf("notify event %s: %w", e.EventID, err))
	}
}

func notificationData(e model.Event) map[string]string {
	return map[string]string{
		"event_id":     e.EventID,
		"type":         string(e.TypesEvent),
		"title":        e.Title,
		"click_action": clickActionOpenEvent,
	}
}
