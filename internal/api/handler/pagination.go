package handler

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

// pageQuery 读取 limit/offset，非法值交给 Pagination.Normalize 处理
func pageQuery(c *gin.Context) service.Pagination {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return service.Pagination{Limit: limit, Offset: offset}.Normalize()
}

// newPage 按当前请求 URL 生成 next/previous 链接
func newPage(c *gin.Context, p service.Pagination, count int64, results interface{}) response.Page {
	page := response.Page{Count: count, Results: results}
	if int64(p.Offset)+int64(p.Limit) < count {
		next := pageURL(c, p.Limit, p.Offset+p.Limit)
		page.Next = &next
	}
	if p.Offset > 0 {
		prevOffset := p.Offset - p.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := pageURL(c, p.Limit, prevOffset)
		page.Previous = &prev
	}
	return page
}

func pageURL(c *gin.Context, limit, offset int) string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + c.Request.Host + u.String()
}
