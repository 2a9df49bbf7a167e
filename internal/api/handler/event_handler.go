package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/api/middleware"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// ListEvents 活动列表
// @Summary 活动列表（标题搜索、按类型过滤、排序，结果缓存）
// @Tags 活动
// @Produce json
// @Param query query string false "标题关键字（不区分大小写）"
// @Param types_event query string false "活动类型" Enums(grant, internship, event, olympiad, course)
// @Param ordering query string false "排序字段，- 前缀表示倒序" default(-created_at)
// @Param limit query int false "每页数量" default(8)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=response.Page{results=[]model.Event}}
// @Failure 400 {object} response.Response
// @Router /api/v1/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	p := pageQuery(c)
	page, err := h.events.ListEvents(c.Request.Context(), service.EventQuery{
		Query:      c.Query("query"),
		Category:   model.Category(c.Query("types_event")),
		Ordering:   c.Query("ordering"),
		Pagination: p,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, newPage(c, p, page.Count, page.Events))
}

// GetEvent 活动详情
// @Summary 活动详情（点击数 +1 并记为已浏览）
// @Tags 活动
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "活动ID"
// @Success 200 {object} response.Response{data=service.EventDetail}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/events/{event_id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	detail, err := h.events.GetEventDetail(c.Request.Context(), c.Param("event_id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, detail)
}

// TrackLink 记录外链点击
// @Summary 记录外链点击（幂等）
// @Tags 活动
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "活动ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/events/{event_id}/link [post]
func (h *Handler) TrackLink(c *gin.Context) {
	if err := h.interactions.RecordLinkClick(c.Request.Context(), middleware.UserID(c), c.Param("event_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "link click recorded"})
}
