package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/CleanAfricaNow/civic-service/internal/client"
	"github.com/CleanAfricaNow/civic-service/internal/config"
)

var startTime = time.Now()

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
	Latency string       `json:"latency,omitempty"`
	Circuit string       `json:"circuit,omitempty"`
	Stats   any          `json:"stats,omitempty"`
}

type HealthResponse struct {
	Status      HealthStatus           `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Checks      map[string]CheckResult `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness probes. Liveness never
// touches collaborators; readiness pings the database and Redis.
type HealthHandler struct {
	cfg   *config.Config
	db    *sql.DB
	redis *client.RedisClient
}

func NewHealthHandler(cfg *config.Config, db *sql.DB, redisClient *client.RedisClient) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, redis: redisClient}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      HealthStatusHealthy,
		Timestamp:   time.Now(),
		Environment: h.cfg.Env,
		Uptime:      time.Since(startTime).Round(time.Second).String(),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]CheckResult{
		"database": h.checkDatabase(ctx),
	}
	if h.redis != nil {
		checks["redis"] = h.checkRedis(ctx)
	}

	overall := HealthStatusHealthy
	status := http.StatusOK
	for name, c := range checks {
		if c.Status == HealthStatusUnhealthy {
			// A broken Redis degrades sessions but the service still
			// answers; a broken database does not.
			if name == "database" {
				overall = HealthStatusUnhealthy
				status = http.StatusServiceUnavailable
			} else if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	writeJSON(w, status, HealthResponse{
		Status:      overall,
		Timestamp:   time.Now(),
		Environment: h.cfg.Env,
		Uptime:      time.Since(startTime).Round(time.Second).String(),
		Checks:      checks,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return CheckResult{Status: HealthStatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) CheckResult {
	start := time.Now()
	res := CheckResult{
		Circuit: h.redis.CircuitState(),
		Stats:   h.redis.GetStats(),
	}
	if err := h.redis.HealthCheck(ctx); err != nil {
		res.Status = HealthStatusUnhealthy
		res.Error = err.Error()
		return res
	}
	res.Status = HealthStatusHealthy
	res.Latency = time.Since(start).String()
	return res
}
