// Package handler HTTP 处理器，负责参数绑定、调用服务与错误到状态码的映射。
package handler

import (
	"github.com/d60-Lab/eventhub/internal/service"
)

type Handler struct {
	events       service.EventService
	interactions service.InteractionService
	resets       service.PasswordResetService
	auth         service.AuthService
	users        service.UserService
}

func New(
	events service.EventService,
	interactions service.InteractionService,
	resets service.PasswordResetService,
	authSvc service.AuthService,
	users service.UserService,
) *Handler {
	return &Handler{
		events:       events,
		interactions: interactions,
		resets:       resets,
		auth:         authSvc,
		users:        users,
	}
}
