package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORSReloader wraps rs/cors with settings read from the database, rebuilt
// on an interval so origin changes apply without a restart. When no row
// exists it falls back to the configured frontend URL.
type CORSReloader struct {
	repo     *database.CorsConfigRepository
	fallback string
	log      *zap.Logger
	interval time.Duration

	next http.Handler

	mu      sync.RWMutex
	current http.Handler
}

// NewCORSReloader creates the reloader. Start must be called separately to
// begin the refresh loop.
func NewCORSReloader(repo *database.CorsConfigRepository, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware captures the downstream handler and performs the initial load
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start refreshes the CORS handler until ctx is cancelled. Apply Middleware
// first so there is a downstream handler to wrap.
func (r *CORSReloader) Start(ctx context.Context) {
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

func (r *CORSReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}

	origins := database.AllowedOriginsSlice(r.fallback)
	allowCreds := true
	maxAge := 86400

	cfg, err := r.repo.Get(ctx)
	if err != nil {
		r.log.Warn("cors_config_load_failed", zap.Error(err))
	} else if cfg != nil {
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key", "X-User-Id"},
	}).Handler(r.next)

	r.mu.Lock()
	r.current = handler
	r.mu.Unlock()
}

// ServeHTTP serves through the most recently built CORS handler
func (r *CORSReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
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
