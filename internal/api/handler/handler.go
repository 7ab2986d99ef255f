package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/api/render"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Services 处理器依赖的业务服务
type Services struct {
	Feeds    service.FeedService
	Posts    service.PostService
	Comments service.CommentService
	Follows  service.FollowService
	Accounts service.AccountService
}

// Options 与 HTTP 相关的配置
type Options struct {
	LoginURL     string
	CookieName   string
	CookieMaxAge int
	SecureCookie bool
	// Health 健康检查，通常是数据库 ping
	Health func(ctx context.Context) error
}

type Handler struct {
	feeds    service.FeedService
	posts    service.PostService
	comments service.CommentService
	follows  service.FollowService
	accounts service.AccountService
	render   render.Renderer
	opts     Options
}

func New(s Services, r render.Renderer, opts Options) *Handler {
	if opts.LoginURL == "" {
		opts.LoginURL = "/auth/login/"
	}
	if opts.CookieName == "" {
		opts.CookieName = "access_token"
	}
	return &Handler{
		feeds:    s.Feeds,
		posts:    s.Posts,
		comments: s.Comments,
		follows:  s.Follows,
		accounts: s.Accounts,
		render:   r,
		opts:     opts,
	}
}

// html 所有页面都带上当前用户
func (h *Handler) html(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = middleware.CurrentUser(c)
	h.render.HTML(c, code, name, data)
}

// fail 把服务层错误翻译成页面响应
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.NotFound(c)
	case errors.Is(err, service.ErrUnauthenticated):
		c.Redirect(http.StatusFound, middleware.LoginRedirect(h.opts.LoginURL, c.Request.URL.RequestURI()))
	default:
		_ = c.Error(err)
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		h.html(c, http.StatusInternalServerError, "core/500.html", gin.H{})
	}
}

// NotFound 未匹配路由与不存在的对象共用
func (h *Handler) NotFound(c *gin.Context) {
	h.html(c, http.StatusNotFound, "core/404.html", gin.H{"path": c.Request.URL.Path})
}

// postID 非数字的 id 视为不存在
func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// formView 表单回显：字段值与字段错误
type formView struct {
	Fields gin.H             `json:"fields"`
	Errors map[string]string `json:"errors"`
}

func newForm(fields gin.H, err error) formView {
	f := formView{Fields: fields, Errors: map[string]string{}}
	if f.Fields == nil {
		f.Fields = gin.H{}
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		f.Errors = ve.Fields
	}
	return f
}

// Healthz 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if h.opts.Health != nil {
		if err := h.opts.Health(c.Request.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
