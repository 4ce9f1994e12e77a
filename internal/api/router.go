package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketlens/screener/internal/api/handlers"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/database"
	"github.com/marketlens/screener/pkg/logger"
	redisx "github.com/marketlens/screener/pkg/redis"
)

// HealthChecker reports database health for the health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, db HealthChecker, screenerHandler *handlers.ScreenerHandler, limiter *redisx.RateLimiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	// Schema
	api.HandleFunc("/attributes", screenerHandler.ListAttributes).Methods("GET")

	// Combined view is registered before the named-set routes so that
	// "matches" never binds as a screener name.
	api.HandleFunc("/screeners/matches", screenerHandler.ListCombinedMatches).Methods("GET")

	// Named screeners
	api.HandleFunc("/screeners/{name}/bounds", screenerHandler.ResolveBounds).Methods("POST")
	api.HandleFunc("/screeners/{name}/criteria/{attribute}", screenerHandler.SetCriterion).Methods("PUT")
	api.HandleFunc("/screeners/{name}/matches", screenerHandler.ListMatches).Methods("GET")
	api.HandleFunc("/screeners/{name}/reset", screenerHandler.ResetCategory).Methods("POST")
	api.HandleFunc("/screeners/{name}/criteria", screenerHandler.ResetAll).Methods("DELETE")
	api.HandleFunc("/screeners/{name}/included", screenerHandler.SetIncluded).Methods("PATCH")

	// Middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	api.Use(rateLimitMiddleware(cfg, limiter, log))

	return r
}

// healthCheckHandler reports server health, including database status and
// pool statistics.
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK

		dbStatus, err := db.HealthCheck(ctx)
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   status,
			"service":  "screener-api",
			"database": dbStatus,
		})
	}
}
