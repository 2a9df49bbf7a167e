package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventhub/internal/api/middleware"
	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Register 注册
// @Summary 注册并发送邮箱确认邮件
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response "邮箱已注册"
// @Router /api/v1/auth/registration [post]
func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, u)
}

// VerifyEmail 确认邮箱
// @Summary 通过邮件中的 key 确认邮箱
// @Tags 认证
// @Produce json
// @Param key path string true "确认 key"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/registration/account-confirm-email/{key} [get]
func (h *Handler) VerifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "email verified"})
}

// Login 登录
// @Summary 登录，返回 access/refresh token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "邮箱与密码"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response "邮箱未确认"
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// Refresh 刷新 access token
// @Summary 用 refresh token 换取新的 access token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body refreshRequest true "refresh token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/token/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	access, err := h.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"access": access})
}

// Logout 登出
// @Summary 登出，access 与 refresh token 加入黑名单
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body refreshRequest false "refresh token"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	// refresh 可以不传，只吊销当前 access token
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.auth.Logout(c.Request.Context(), middleware.Claims(c), req.Refresh); err != nil {
		writeError(c, err)
		return
	}
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", false, true)
	response.Success(c, gin.H{"message": "logged out"})
}

// Me 当前用户
// @Summary 当前登录用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/auth/user [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, u)
}
