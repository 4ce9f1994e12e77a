package api

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/logger"
	redisx "github.com/marketlens/screener/pkg/redis"
)

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware caps per-client request rates. With Redis enabled the
// sliding window is shared across instances; otherwise a single in-process
// token bucket covers the whole instance.
func rateLimitMiddleware(cfg *config.Config, limiter *redisx.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	window := cfg.Screener.RateLimitWindow
	limit := cfg.Screener.RateLimit

	fallback := rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, _, err := limiter.Allow(r.Context(), redisx.RateLimitConfig{
				Key:    clientKey(r),
				Limit:  limit,
				Window: window,
			})
			if err != nil {
				// Redis trouble must not take the API down.
				log.WithError(err).Warn("Rate limiter unavailable, falling back")
				allowed = fallback.Allow()
			} else if allowed && !limiter.Enabled() {
				allowed = fallback.Allow()
			}

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies a caller for rate limiting: the user when known,
// otherwise the remote host.
func clientKey(r *http.Request) string {
	if owner := r.Header.Get("X-User-ID"); owner != "" {
		return owner
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
