package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/logger"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// writeError 把服务层错误映射为 HTTP 状态码；未识别的错误按 500 返回原始信息
func writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error(c, http.StatusBadRequest, ve.Error(), gin.H{ve.Field: ve.Messages})
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAlreadyFavorited),
		errors.Is(err, service.ErrNotFavorited),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrTokenExpired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Forbidden(c, err.Error())
	default:
		logger.Error("unhandled error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		response.InternalError(c, err)
	}
}

// bindError 请求体/参数绑定失败统一返回 400，校验错误按字段给出文案
func bindError(c *gin.Context, err error) {
	if fields := fieldErrors(err); len(fields) > 0 {
		response.Error(c, http.StatusBadRequest, "invalid request", fields)
		return
	}
	response.BadRequest(c, err.Error())
}
