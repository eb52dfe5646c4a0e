package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// defaultRatelimitRate is the global per-IP rate in ulule formatted form
const defaultRatelimitRate = "100-M"

// RateLimitReloader applies a per-IP request rate via ulule/limiter with a
// Redis store. The rate is stored in the database and re-read on an interval
// so operators can tune it at runtime.
type RateLimitReloader struct {
	store       limiter.Store
	repo        *database.RatelimitConfigRepository
	defaultRate string
	log         *zap.Logger
	interval    time.Duration

	next http.Handler

	mu      sync.RWMutex
	current http.Handler
}

// NewRateLimitReloader creates the reloader. Returns nil when the Redis
// store cannot be built; callers treat that as rate limiting unavailable.
func NewRateLimitReloader(redisClient *redis.Client, repo *database.RatelimitConfigRepository, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		log.Error("failed_to_create_redis_store_for_rate_limiter", zap.Error(err))
		return nil
	}
	return &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
}

// Middleware captures the downstream handler and performs the initial load
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start re-reads the configured rate until ctx is cancelled
func (r *RateLimitReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

func (r *RateLimitReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}

	rateStr := r.defaultRate
	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("ratelimit_config_load_failed_using_default",
			zap.Error(err),
			zap.String("default_rate", r.defaultRate))
	case cfg != nil && cfg.Rate != "":
		rateStr = cfg.Rate
	default:
		// Seed the row so the CLI has something to show and edit
		if err := r.repo.Set(ctx, &models.RatelimitConfig{Rate: r.defaultRate}); err != nil {
			r.log.Error("failed_to_seed_default_ratelimit_config", zap.Error(err))
		}
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("invalid_rate_limit_format_using_default",
			zap.Error(err),
			zap.String("rate", rateStr))
		rate, err = limiter.NewRateFromFormatted(r.defaultRate)
		if err != nil {
			r.log.Error("invalid_default_rate_limit_format", zap.Error(err))
			return
		}
	}

	// The store persists across reloads; only the limiter wrapper changes
	mw := stdlibmw.NewMiddleware(
		limiter.New(r.store, rate),
		stdlibmw.WithKeyGetter(func(req *http.Request) string {
			return request.ClientIP(req)
		}),
	)

	r.mu.Lock()
	r.current = mw.Handler(r.next)
	r.mu.Unlock()
}

// ServeHTTP serves through the most recently built limiter
func (r *RateLimitReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	h := r.current
	r.mu.RUnlock()

	if h == nil {
		h = r.next
	}
	if h != nil {
		h.ServeHTTP(w, req)
	}
}
