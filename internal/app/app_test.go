package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/pkg/database"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:    config.ServerConfig{Port: 0, Mode: "test", LoginURL: "/auth/login/", ShutdownTimeout: time.Second},
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "yatube.db"), LogLevel: "silent"},
		Cache:     config.CacheConfig{IndexTTL: 20 * time.Second, Prefix: "yatube:page:"},
		Feed:      config.FeedConfig{PageSize: 10},
		JWT:       config.JWTConfig{Secret: "test", Expire: time.Hour, CookieName: "access_token"},
		Storage:   config.StorageConfig{Driver: "local", MediaRoot: filepath.Join(dir, "media")},
		RateLimit: config.RateLimitConfig{RPS: 10, Burst: 10},
	}
}

func TestNewServesIndex(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, database.Migrate(a.db))

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"template":"posts/index.html"`)

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewCacheStore(t *testing.T) {
	cfg := testConfig(t)

	store, client := NewCacheStore(context.Background(), cfg)
	assert.IsType(t, &cache.MemoryStore{}, store)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	cfg.Redis = config.RedisConfig{Enabled: true, Addr: mr.Addr()}
	store, client = NewCacheStore(context.Background(), cfg)
	require.NotNil(t, client)
	defer client.Close()
	assert.IsType(t, &cache.RedisStore{}, store)

	// redis 不可用时降级
	cfg.Redis.Addr = "127.0.0.1:1"
	store, client = NewCacheStore(context.Background(), cfg)
	assert.Nil(t, client)
	assert.IsType(t, &cache.MemoryStore{}, store)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
