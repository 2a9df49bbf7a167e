package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/api/middleware"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// ListFavorites 收藏列表
// @Summary 收藏列表（按收藏时间倒序）
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param limit query int false "每页数量" default(8)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=response.Page{results=[]model.Event}}
// @Router /api/v1/favorites [get]
func (h *Handler) ListFavorites(c *gin.Context) {
	p := pageQuery(c)
	page, err := h.interactions.ListFavorites(c.Request.Context(), middleware.UserID(c), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, newPage(c, p, page.Count, page.Events))
}

// AddFavorite 加入收藏
// @Summary 加入收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param event_id query string true "活动ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "缺少 event_id 或已在收藏中"
// @Failure 404 {object} response.Response
// @Router /api/v1/favorites/add [post]
func (h *Handler) AddFavorite(c *gin.Context) {
	h.toggleFavorite(c, true, "event added to favorites")
}

// RemoveFavorite 取消收藏
// @Summary 取消收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param event_id query string true "活动ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "缺少 event_id 或不在收藏中"
// @Failure 404 {object} response.Response
// @Router /api/v1/favorites/remove [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.toggleFavorite(c, false, "event removed from favorites")
}

func (h *Handler) toggleFavorite(c *gin.Context, on bool, msg string) {
	eventID := c.Query("event_id")
	if eventID == "" {
		response.BadRequest(c, "event_id is required")
		return
	}
	if err := h.interactions.ToggleFavorite(c.Request.Context(), middleware.UserID(c), eventID, on); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": msg})
}
