package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

const (
	loginTemplate     = "users/login.html"
	signupTemplate    = "users/signup.html"
	loggedOutTemplate = "users/logged_out.html"
)

// SignUp GET 展示注册表单，POST 创建账号后回到首页
func (h *Handler) SignUp(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.html(c, http.StatusOK, signupTemplate, gin.H{"form": newForm(nil, nil)})
		return
	}
	in := service.SignUpInput{Username: c.PostForm("username"), Password: c.PostForm("password")}
	if _, err := h.accounts.SignUp(c.Request.Context(), in); err != nil {
		if isValidation(err) {
			h.html(c, http.StatusOK, signupTemplate, gin.H{
				"form": newForm(gin.H{"username": in.Username}, err),
			})
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Login 登录成功写入 cookie，跳转到 next
func (h *Handler) Login(c *gin.Context) {
	next := c.Query("next")
	if c.Request.Method != http.MethodPost {
		h.html(c, http.StatusOK, loginTemplate, gin.H{"form": newForm(nil, nil), "next": next})
		return
	}
	if v := c.PostForm("next"); v != "" {
		next = v
	}
	username := c.PostForm("username")
	_, token, err := h.accounts.Login(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			form := newForm(gin.H{"username": username}, nil)
			form.Errors["__all__"] = "Please enter a correct username and password."
			h.html(c, http.StatusOK, loginTemplate, gin.H{"form": form, "next": next})
			return
		}
		h.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, h.opts.CookieMaxAge, "/", "", h.opts.SecureCookie, true)
	c.Redirect(http.StatusFound, middleware.SafeNext(next))
}

// Logout 清除 cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.SecureCookie, true)
	h.render.HTML(c, http.StatusOK, loggedOutTemplate, gin.H{"user": nil})
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Token 用户名密码换取 JWT
// @Summary 获取访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body tokenRequest true "登录信息"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /api/v1/auth/token [post]
func (h *Handler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": h.opts.CookieMaxAge,
		"username":   u.Username,
	})
}
