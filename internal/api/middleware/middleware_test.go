package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/api/render"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

type stubAccounts struct {
	service.AccountService
	tokens map[string]*model.User
}

func (s stubAccounts) Identify(_ context.Context, token string) (*model.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, service.ErrUnauthenticated
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given", w.Body.String())
}

func TestAuthenticate(t *testing.T) {
	leo := &model.User{ID: 1, Username: "leo"}
	r := gin.New()
	r.Use(Authenticate(stubAccounts{tokens: map[string]*model.User{"good": leo}}, "access_token"))
	r.GET("/", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	tests := []struct {
		name string
		set  func(r *http.Request)
		want string
	}{
		{"no credentials", func(*http.Request) {}, "anonymous"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "good"}) }, "leo"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, "leo"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.set(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRequireLogin(t *testing.T) {
	r := gin.New()
	r.POST("/posts/:post_id/comment/", RequireLogin("/auth/login/"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/1/comment/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/posts/1/comment/", w.Header().Get("Location"))
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/create/", LoginRedirect("/auth/login/", "/create/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirect("/auth/login/", "/follow/?page=2"))
	assert.Equal(t, "/login?x=1&next=/create/", LoginRedirect("/login?x=1", "/create/"))
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                   "/",
		"/profile/leo/":      "/profile/leo/",
		"https://evil.test/": "/",
		"//evil.test/":       "/",
		"relative":           "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeNext(in), in)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(render.JSON{}))
	r.GET("/boom", func(*gin.Context) { panic(errors.New("boom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"template":"core/500.html"`)
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))
}

func TestRateLimitSkipsGet(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0, 0)))
	r.Any("/auth/login/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
