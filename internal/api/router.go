package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/cnquant/internal/api/handlers"
	"github.com/wonny/cnquant/pkg/database"
	"github.com/wonny/cnquant/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports the run store's health
type HealthChecker interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
}

// Handlers groups the endpoint handlers. Jobs may be nil when no scheduler
// runs; DB is nil without a database.
type Handlers struct {
	Quotes *handlers.QuoteHandler
	Screen *handlers.ScreenHandler
	Market *handlers.MarketHandler
	Score  *handlers.ScoreHandler
	Stream *handlers.StreamHandler
	Jobs   *handlers.JobHandler
	DB     HealthChecker
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(h.DB)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Quote endpoints
	api.HandleFunc("/quotes", h.Quotes.GetQuotes).Methods("GET")
	api.HandleFunc("/stocks/{code}/overview", h.Quotes.GetOverview).Methods("GET")
	api.HandleFunc("/stocks/{code}/score", h.Score.GetScore).Methods("GET")

	// Screen endpoints
	api.HandleFunc("/screen/latest", h.Screen.GetLatest).Methods("GET")

	// Market endpoints
	api.HandleFunc("/market/indices", h.Market.GetIndices).Methods("GET")
	api.HandleFunc("/market/sectors", h.Market.GetSectors).Methods("GET")
	api.HandleFunc("/market/environment", h.Market.GetEnvironment).Methods("GET")

	// Scheduler endpoints
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.List).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", h.Jobs.Run).Methods("POST")
	}

	// Websocket stream
	r.HandleFunc("/ws/quotes", h.Stream.Stream).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status. An unreachable
// database turns the answer into 503 "degraded".
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "cnquant-api",
		}
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			status := db.HealthCheck(ctx)
			cancel()

			body["database"] = status
			if !status.Healthy {
				body["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}

// loggingMiddleware logs HTTP requests
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

// recoveryMiddleware recovers from panics
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
