// Package middleware gin 中间件：鉴权、CORS、请求日志、限流。
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/auth"
	"github.com/d60-Lab/eventhub/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "auth_claims"

	// AuthCookie 浏览器端可以用 cookie 代替 Authorization 头
	AuthCookie = "_auth"
)

// Authenticator 校验 access token（签名、有效期、黑名单）
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// UserLookup 按 ID 读取用户
type UserLookup interface {
	Me(ctx context.Context, userID string) (*model.User, error)
}

// AuthRequired 解析 Bearer token 或 _auth cookie，成功后写入 user_id
func AuthRequired(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, service.ErrUnauthorized.Error())
			c.Abort()
			return
		}
		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				response.Unauthorized(c, err.Error())
			} else {
				response.InternalError(c, err)
			}
			c.Abort()
			return
		}
		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// StaffRequired 必须挂在 AuthRequired 之后
func StaffRequired(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.Me(c.Request.Context(), UserID(c))
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.Unauthorized(c, service.ErrUnauthorized.Error())
			} else {
				response.InternalError(c, err)
			}
			c.Abort()
			return
		}
		if !u.IsActive || !u.IsStaff {
			response.Forbidden(c, "you do not have permission to perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID 返回 AuthRequired 写入的用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Claims 返回当前 access token 的声明
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > len("bearer ") && strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
