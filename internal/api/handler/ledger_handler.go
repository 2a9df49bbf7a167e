package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/api/middleware"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// ListUnviewed 未浏览的活动
// @Summary 未浏览的活动（最新在前）
// @Tags 台账
// @Produce json
// @Security BearerAuth
// @Param types_event query string false "活动类型"
// @Param limit query int false "每页数量" default(8)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=response.Page{results=[]model.Event}}
// @Router /api/v1/unviewed [get]
func (h *Handler) ListUnviewed(c *gin.Context) {
	p := pageQuery(c)
	page, err := h.interactions.ListUnviewed(c.Request.Context(), middleware.UserID(c),
		model.Category(c.Query("types_event")), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, newPage(c, p, page.Count, page.Events))
}

// UnviewedCount 各类型未浏览数量
// @Summary 各类型未浏览数量（五个类型都会返回）
// @Tags 台账
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/unviewed_count [get]
func (h *Handler) UnviewedCount(c *gin.Context) {
	counts, err := h.interactions.CountUnviewedByCategory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, counts)
}

// UserActions 用户交互记录
// @Summary 交互记录：本页收藏/浏览的活动ID + 未浏览总数
// @Tags 台账
// @Produce json
// @Security BearerAuth
// @Param event_type query string false "活动类型"
// @Param limit query int false "每页数量" default(8)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=response.Page{results=service.UserActions}}
// @Router /api/v1/user-actions [get]
func (h *Handler) UserActions(c *gin.Context) {
	p := pageQuery(c)
	actions, err := h.interactions.ListUserActions(c.Request.Context(), middleware.UserID(c),
		model.Category(c.Query("event_type")), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, newPage(c, p, actions.Count, actions))
}
