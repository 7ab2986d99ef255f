package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/metrics"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// cachedPage 缓存的一次完整响应
type cachedPage struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache 将 GET 响应按 RequestURI 缓存 ttl 时长
type PageCache struct {
	store Store
	ttl   time.Duration
}

func NewPageCache(store Store, ttl time.Duration) *PageCache {
	return &PageCache{store: store, ttl: ttl}
}

// Clear 使所有已缓存页面失效
func (p *PageCache) Clear(ctx context.Context) error {
	return p.store.Clear(ctx)
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// VaryFunc 返回请求在 URI 之外的缓存维度，例如登录用户；空串表示匿名共享
type VaryFunc func(c *gin.Context) string

// Key 缓存键：RequestURI，vary 非空时追加
func Key(c *gin.Context, vary VaryFunc) string {
	key := c.Request.URL.RequestURI()
	if vary != nil {
		if v := vary(c); v != "" {
			key += "|" + v
		}
	}
	return key
}

// Middleware 命中时直接回放；仅缓存 200 响应。缓存故障不影响请求
func (p *PageCache) Middleware(vary VaryFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := Key(c, vary)

		data, ok, err := p.store.Get(ctx, key)
		if err != nil {
			logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			var page cachedPage
			if err := json.Unmarshal(data, &page); err == nil {
				metrics.PageCache.WithLabelValues("hit").Inc()
				c.Data(http.StatusOK, page.ContentType, page.Body)
				c.Abort()
				return
			}
		}
		metrics.PageCache.WithLabelValues("miss").Inc()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		payload, err := json.Marshal(cachedPage{
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := p.store.Set(ctx, key, payload, p.ttl); err != nil {
			logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}
