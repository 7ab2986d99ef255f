// Package app 组装配置、存储、服务与路由
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/auth"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/tracing"
)

// Repositories 全部仓储
type Repositories struct {
	Users    repository.UserRepository
	Groups   repository.GroupRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    repository.NewUserRepository(db),
		Groups:   repository.NewGroupRepository(db),
		Posts:    repository.NewPostRepository(db),
		Comments: repository.NewCommentRepository(db),
		Follows:  repository.NewFollowRepository(db),
	}
}

// NewServices 按配置构建业务服务
func NewServices(cfg *config.Config, repos Repositories, store storage.Storage) handler.Services {
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expire)
	return handler.Services{
		Feeds:    service.NewFeedService(repos.Posts, repos.Groups, repos.Users, repos.Follows, cfg.Feed.PageSize),
		Posts:    service.NewPostService(repos.Posts, repos.Groups, repos.Comments, store),
		Comments: service.NewCommentService(repos.Posts, repos.Comments),
		Follows:  service.NewFollowService(repos.Users, repos.Follows),
		Accounts: service.NewAccountService(repos.Users, tokens),
	}
}

// NewCacheStore Redis 可用时使用 Redis，否则退回进程内缓存
func NewCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, *redis.Client) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryStore(), nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory page cache", zap.Error(err))
		return cache.NewMemoryStore(), nil
	}
	return cache.NewRedisStore(client, cfg.Cache.Prefix), client
}

// App 一个可运行的 yatube 进程
type App struct {
	cfg       *config.Config
	db        *gorm.DB
	redis     *redis.Client
	PageCache *cache.PageCache
	Router    *gin.Engine
	shutdown  tracing.Shutdown
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	cacheStore, rdb := NewCacheStore(ctx, cfg)
	pageCache := cache.NewPageCache(cacheStore, cfg.Cache.IndexTTL)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	router, err := api.NewRouter(api.Deps{
		Config:    cfg,
		Services:  NewServices(cfg, NewRepositories(db), store),
		PageCache: pageCache,
		Health:    sqlDB.PingContext,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		db:        db,
		redis:     rdb,
		PageCache: pageCache,
		Router:    router,
		shutdown:  shutdown,
	}, nil
}

// Run 阻塞直到 ctx 取消，然后在 shutdown_timeout 内优雅退出
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         api.Addr(a.cfg),
		Handler:      a.Router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close 释放数据库、Redis 与 tracing
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	sentry.Flush(2 * time.Second)
}

// Migrate 建表
func (a *App) Migrate() error {
	return database.Migrate(a.db)
}
