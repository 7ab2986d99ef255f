package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/app"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// 首页在不同缓存后端下的延迟对比
func main() {
	var (
		authors  = flag.Int("authors", 200, "number of authors")
		posts    = flag.Int("posts", 20000, "number of posts")
		requests = flag.Int("requests", 5000, "requests per scenario")
		pages    = flag.Int("pages", 20, "distinct pages requested")
	)
	flag.Parse()

	ctx := context.Background()
	gin.SetMode(gin.ReleaseMode)
	_ = logger.Init("error", false)

	cfg := benchConfig()
	db := must(database.InitDB(cfg))
	mustDo(db.Migrator().DropTable(model.All()...))
	mustDo(database.Migrate(db))

	fmt.Println("Setting up test data...")
	seed(db, *authors, *posts)
	fmt.Printf("Test data ready: %d authors, %d posts\n", *authors, *posts)

	services := app.NewServices(cfg, app.NewRepositories(db), storage.NewLocalStorage(os.TempDir()))
	reqs := makeRequests(*requests, *pages)

	results := []scenarioResult{
		runScenario("No cache", newRouter(cfg, services, nil), reqs, nil),
	}

	mem := cache.NewMemoryStore()
	results = append(results, runScenario("Memory cache", newRouter(cfg, services, mem), reqs, mem))

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client, err := cache.NewRedisClient(ctx, config.RedisConfig{Addr: redisAddr})
	if err != nil {
		fmt.Printf("skip redis scenario: %v\n", err)
	} else {
		defer client.Close()
		rs := cache.NewRedisStore(client, cfg.Cache.Prefix)
		mustDo(rs.Clear(ctx))
		res := runScenario("Redis cache", newRouter(cfg, services, rs), reqs, rs)
		res.memoryBytes = redisMemory(ctx, client)
		results = append(results, res)
	}

	fmt.Printf("\nHome feed latency (%d req, %d pages, %s)\n", *requests, *pages, cfg.Database.Driver)
	for _, r := range results {
		fmt.Printf("%-14s avg=%v p95=%v p99=%v hits=%d misses=%d mem=%s\n",
			r.name, avg(r.durations), pct(r.durations, 0.95), pct(r.durations, 0.99),
			r.counters.Hits, r.counters.Misses, formatBytes(r.memoryBytes),
		)
	}
}

func benchConfig() *config.Config {
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.ReleaseMode, LoginURL: "/auth/login/"},
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: "feedbench.db", LogLevel: "silent", MaxOpenConns: 20, MaxIdleConns: 5},
		Cache:     config.CacheConfig{IndexTTL: 10 * time.Minute, Prefix: "feedbench:page:"},
		Feed:      config.FeedConfig{PageSize: 10},
		JWT:       config.JWTConfig{Secret: "bench", Expire: time.Hour, CookieName: "access_token"},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
	// postgres 下结果更接近生产
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = dsn
	}
	return cfg
}

func seed(db *gorm.DB, authors, posts int) {
	users := make([]model.User, authors)
	for i := range users {
		users[i] = model.User{Username: "author_" + uuid.NewString()[:8], Password: "-"}
	}
	mustDo(db.CreateInBatches(&users, 500).Error)

	groups := []model.Group{
		{Title: "Cats", Slug: "cats"},
		{Title: "Dogs", Slug: "dogs"},
	}
	mustDo(db.Create(&groups).Error)

	base := time.Now()
	rows := make([]model.Post, posts)
	for i := range rows {
		rows[i] = model.Post{
			Text:     fmt.Sprintf("post %d %s", i, strings.Repeat("lorem ipsum ", 8)),
			AuthorID: users[i%authors].ID,
			PubDate:  base.Add(-time.Duration(i) * time.Second),
		}
		if i%3 == 0 {
			rows[i].GroupID = &groups[i%2].ID
		}
	}
	mustDo(db.Omit("Author", "Group").CreateInBatches(&rows, 1000).Error)
}

type counting interface {
	Counters() cache.Counters
	ResetCounters()
}

type scenarioResult struct {
	name        string
	durations   []time.Duration
	counters    cache.Counters
	memoryBytes int64
}

func newRouter(cfg *config.Config, services handler.Services, store cache.Store) http.Handler {
	var pc *cache.PageCache
	if store != nil {
		pc = cache.NewPageCache(store, cfg.Cache.IndexTTL)
	}
	return must(api.NewRouter(api.Deps{Config: cfg, Services: services, PageCache: pc}))
}

func runScenario(name string, h http.Handler, reqs []string, store counting) scenarioResult {
	fmt.Printf("  %s: running...", name)
	if store != nil {
		store.ResetCounters()
	}
	out := make([]time.Duration, 0, len(reqs))
	for _, target := range reqs {
		w := httptest.NewRecorder()
		start := time.Now()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		out = append(out, time.Since(start))
		if w.Code != http.StatusOK {
			panic(fmt.Sprintf("GET %s: %d", target, w.Code))
		}
	}
	fmt.Println(" done")

	res := scenarioResult{name: name, durations: out}
	if store != nil {
		res.counters = store.Counters()
	}
	return res
}

// makeRequests 前几页访问最多
func makeRequests(n, pages int) []string {
	r := rand.New(rand.NewSource(42))
	out := make([]string, n)
	for i := range out {
		page := int(math.Min(float64(pages), 1+math.Floor(r.ExpFloat64()*float64(pages)/4)))
		if page == 1 {
			out[i] = "/"
		} else {
			out[i] = fmt.Sprintf("/?page=%d", page)
		}
	}
	return out
}

func redisMemory(ctx context.Context, client *redis.Client) int64 {
	info, err := client.Info(ctx, "memory").Result()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			var n int64
			fmt.Sscan(v, &n)
			return n
		}
	}
	return 0
}

func avg(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

func pct(ds []time.Duration, p float64) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), ds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
