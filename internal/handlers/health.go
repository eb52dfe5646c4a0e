package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/redis/go-redis/v9"
)

// Version is stamped at build time via -ldflags
var Version = "dev"

// HealthChecker probes the gateway's backing services. Any probe may be nil
// when the deployment runs without that service.
type HealthChecker struct {
	db     *database.DB
	redis  *redis.Client
	jobs   queue.JobQueue
}

// NewHealthChecker creates a health checker
func NewHealthChecker(db *database.DB, redisClient *redis.Client, jobs queue.JobQueue) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, jobs: jobs}
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. Basic mode answers without touching backing
// services; ?mode=extended probes each configured one.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response)
		return
	}

	checks := make(map[string]string)

	if h.db != nil {
		checks["database"] = h.probe(r.Context(), h.checkDatabase)
	}
	if h.redis != nil {
		checks["redis"] = h.probe(r.Context(), h.checkRedis)
	}
	if h.jobs != nil {
		checks["queue"] = h.probe(r.Context(), h.jobs.HealthCheck)
	}

	statusCode := http.StatusOK
	for _, outcome := range checks {
		if outcome != "healthy" {
			response.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	response.Checks = checks
	respondJSON(w, statusCode, response)
}

// VersionInfo handles /version
func (h *HealthChecker) VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": Version})
}

func (h *HealthChecker) probe(ctx context.Context, check func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := check(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *HealthChecker) checkRedis(ctx context.Context) error {
	return h.redis.Ping(ctx).Err()
}
