// Package push 推送通知客户端。FCM 在构造时完成初始化，失败直接返回错误。
package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/d60-Lab/eventhub/pkg/logger"
)

// multicastLimit FCM 单次 multicast 允许的最大 token 数
const multicastLimit = 500

// Message 一次推送
type Message struct {
	Title  string
	Body   string
	Tokens []string
	Data   map[string]string
}

// Result 推送结果统计
type Result struct {
	SuccessCount int
	FailureCount int
}

// Sender 推送通道，FCM 与 Noop 均实现该接口
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// FCM Firebase Cloud Messaging 客户端
type FCM struct {
	client *messaging.Client
}

// NewFCM 使用服务账号凭据文件创建客户端
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	if credentialsFile == "" {
		return nil, errors.New("push: credentials file is required")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("push: init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: init messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

// Send 分批发送。部分 token 失败只计入 FailureCount；请求级错误会返回 error。
func (f *FCM) Send(ctx context.Context, msg Message) (Result, error) {
	var res Result
	if len(msg.Tokens) == 0 {
		logger.Warn("push: no tokens provided")
		return res, nil
	}

	notification := &messaging.Notification{Title: msg.Title, Body: msg.Body}
	var errs []error
	for _, batch := range chunk(msg.Tokens, multicastLimit) {
		br, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: notification,
			Data:         msg.Data,
		})
		if err != nil {
			res.FailureCount += len(batch)
			errs = append(errs, err)
			continue
		}
		res.SuccessCount += br.SuccessCount
		res.FailureCount += br.FailureCount
		for i, r := range br.Responses {
			if r.Success {
				continue
			}
			logger.Warn("push: token delivery failed",
				zap.String("token_prefix", tokenPrefix(batch[i])),
				zap.Error(r.Error))
		}
	}
	return res, errors.Join(errs...)
}

// Noop 推送关闭时使用，只记录日志
type Noop struct{}

func (Noop) Send(_ context.Context, msg Message) (Result, error) {
	logger.Info("push disabled, skipping notification",
		zap.String("title", msg.Title), zap.Int("tokens", len(msg.Tokens)))
	return Result{}, nil
}

func chunk(tokens []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, tokens[start:end])
	}
	return out
}

func tokenPrefix(tok string) string {
	if len(tok) > 10 {
		return tok[:10] + "..."
	}
	return tok
}
