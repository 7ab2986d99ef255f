package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/api/render"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/metrics"
)

// Deps 构建路由所需的全部依赖
type Deps struct {
	Config    *config.Config
	Services  handler.Services
	PageCache *cache.PageCache
	// Health 健康检查，可为空
	Health func(ctx context.Context) error
}

// NewRouter 注册中间件与全部路由
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()

	var renderer render.Renderer = render.JSON{}
	if cfg.Server.TemplateDir != "" {
		if err := render.LoadTemplates(r, cfg.Server.TemplateDir); err != nil {
			return nil, err
		}
		renderer = render.Templates{}
	}

	r.Use(middleware.RequestID(), middleware.Recovery(renderer), middleware.Logger(), metrics.Middleware())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	if len(cfg.Server.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.Authenticate(d.Services.Accounts, cfg.JWT.CookieName))

	h := handler.New(d.Services, renderer, handler.Options{
		LoginURL:     cfg.Server.LoginURL,
		CookieName:   cfg.JWT.CookieName,
		CookieMaxAge: int(cfg.JWT.Expire / time.Second),
		SecureCookie: cfg.Server.Mode == gin.ReleaseMode,
		Health:       d.Health,
	})

	login := middleware.RequireLogin(cfg.Server.LoginURL)
	limiter := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 首页整页缓存
	if d.PageCache != nil {
		r.GET("/", d.PageCache.Middleware(pageVary), h.Index)
	} else {
		r.GET("/", h.Index)
	}
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/follow/", login, h.FollowIndex)
	r.Match([]string{http.MethodGet, http.MethodPost}, "/create/", login, h.PostCreate)

	profile := r.Group("/profile/:username")
	{
		profile.GET("/", h.Profile)
		profile.POST("/follow/", login, h.ProfileFollow)
		profile.POST("/unfollow/", login, h.ProfileUnfollow)
	}

	posts := r.Group("/posts/:post_id")
	{
		posts.GET("/", h.PostDetail)
		posts.Match([]string{http.MethodGet, http.MethodPost}, "/edit/", login, h.PostEdit)
		posts.Match([]string{http.MethodGet, http.MethodPost}, "/comment/", login, h.AddComment)
	}

	auth := r.Group("/auth")
	{
		auth.Match([]string{http.MethodGet, http.MethodPost}, "/signup/", limiter, h.SignUp)
		auth.Match([]string{http.MethodGet, http.MethodPost}, "/login/", limiter, h.Login)
		auth.GET("/logout/", h.Logout)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/token", limiter, h.Token)
		v1.POST("/profile/:username/follow", h.APIFollow)
		v1.DELETE("/profile/:username/follow", h.APIUnfollow)
	}

	r.NoRoute(h.NotFound)
	return r, nil
}

// pageVary 页面含当前用户信息，登录用户各自一份缓存
func pageVary(c *gin.Context) string {
	if u := middleware.CurrentUser(c); u != nil {
		return fmt.Sprintf("user:%d", u.ID)
	}
	return ""
}

// Addr 监听地址
func Addr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}
