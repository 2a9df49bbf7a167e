package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// CreateEvent 创建活动
// @Summary 创建活动并异步推送给所有设备
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateEventInput true "活动信息"
// @Success 201 {object} response.Response{data=model.Event}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/admin/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var in service.CreateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	e, err := h.events.CreateEvent(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, e)
}

// DeleteEvent 删除活动
// @Summary 删除活动及其交互记录
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "活动ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/events/{event_id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.events.DeleteEvent(c.Request.Context(), c.Param("event_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "event deleted"})
}

// EventStats 活动受众统计
// @Summary 按用户类型统计浏览/收藏/外链点击
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "活动ID"
// @Success 200 {object} response.Response{data=repository.EventStats}
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/events/{event_id}/stats [get]
func (h *Handler) EventStats(c *gin.Context) {
	stats, err := h.events.EventStats(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers 用户列表
// @Summary 用户列表
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param limit query int false "每页数量" default(8)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=response.Page{results=[]model.User}}
// @Router /api/v1/admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	p := pageQuery(c)
	page, err := h.users.ListUsers(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, newPage(c, p, page.Count, page.Users))
}
