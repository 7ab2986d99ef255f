package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/api/render"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Recovery 捕获 panic，记录日志并在配置了 DSN 时上报 Sentry
func Recovery(r render.Renderer) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Any("panic", recovered),
		)
		if hub := sentry.CurrentHub(); hub.Client() != nil {
			hub = hub.Clone()
			hub.Scope().SetRequest(c.Request)
			hub.Scope().SetTag("request_id", c.GetString("request_id"))
			hub.RecoverWithContext(c.Request.Context(), recovered)
			hub.Flush(2 * time.Second)
		}
		r.HTML(c, http.StatusInternalServerError, "core/500.html", gin.H{"request_id": c.GetString("request_id")})
		c.Abort()
	})
}
