package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/api/middleware"
	"github.com/d60-Lab/eventhub/pkg/response"
)

type deviceTokenRequest struct {
	DeviceToken string `json:"device_token" binding:"required,max=255"`
}

// UpdateDeviceToken 设置推送 token
// @Summary 设置当前用户的推送 token
// @Tags 设备
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body deviceTokenRequest true "推送 token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/devices/token [post]
func (h *Handler) UpdateDeviceToken(c *gin.Context) {
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.users.UpdateDeviceToken(c.Request.Context(), middleware.UserID(c), req.DeviceToken); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "device token updated"})
}
