package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestReset 申请重置密码
// @Summary 发送 6 位重置码到邮箱（已有未使用的码时轮换）
// @Tags 密码重置
// @Accept json
// @Produce json
// @Param request body resetRequest true "邮箱"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "邮箱不存在"
// @Failure 429 {object} response.Response
// @Router /api/v1/auth/password/reset [post]
func (h *Handler) RequestReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.BadRequest(c, "user with this email not found")
			return
		}
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password reset code sent"})
}

// ConfirmReset 确认重置密码
// @Summary 使用重置码设置新密码
// @Tags 密码重置
// @Accept json
// @Produce json
// @Param request body service.ConfirmResetInput true "邮箱、重置码与新密码"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "重置码无效或已过期"
// @Failure 429 {object} response.Response
// @Router /api/v1/auth/password/reset/confirm [post]
func (h *Handler) ConfirmReset(c *gin.Context) {
	var in service.ConfirmResetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if err := h.resets.ConfirmReset(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password has been reset"})
}
