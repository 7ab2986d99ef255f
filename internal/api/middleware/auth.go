package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

const userKey = "user"

// Authenticate 从 cookie 或 Authorization: Bearer 中识别用户；识别失败按匿名处理
func Authenticate(accounts service.AccountService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token != "" {
			if u, err := accounts.Identify(c.Request.Context(), token); err == nil {
				c.Set(userKey, u)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// SetUser 供测试和内部调用直接注入身份
func SetUser(c *gin.Context, u *model.User) { c.Set(userKey, u) }

// RequireLogin 匿名请求跳转到登录页，附带 next
func RequireLogin(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginRedirect(loginURL, c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRedirect 生成 /auth/login/?next=/posts/1/comment/，next 中保留斜杠
func LoginRedirect(loginURL, next string) string {
	q := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + q
}

// SafeNext 只接受站内路径，避免开放跳转
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}
