package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescope/backend/internal/api/handlers"
	"github.com/wonny/valuescope/backend/pkg/database"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// ServiceName is reported by GET /
const ServiceName = "valuescope-api"

// HealthChecker reports database reachability and pool usage.
// *database.DB implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// Deps are the handlers and probes the router mounts
type Deps struct {
	Stocks   *handlers.StockHandler
	Screener *handlers.ScreenerHandler
	Alerts   *handlers.AlertHandler
	Articles *handlers.ArticleHandler
	AI       *handlers.AIHandler
	AlertHub http.Handler

	DB          HealthChecker
	Environment string
	Version     string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(d Deps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", rootHandler(d.Version)).Methods("GET")
	r.HandleFunc("/health", healthHandler(d.DB, d.Environment)).Methods("GET")
	r.Handle("/ws/alerts", d.AlertHub)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Stocks
	v1.HandleFunc("/stocks", d.Stocks.List).Methods("GET")
	v1.HandleFunc("/stocks/{code}", d.Stocks.Get).Methods("GET")
	v1.HandleFunc("/stocks/{code}/daily", d.Stocks.Daily).Methods("GET")
	v1.HandleFunc("/stocks/{code}/indicators", d.Stocks.Indicators).Methods("GET")
	v1.HandleFunc("/stocks/{code}/financials", d.Stocks.Financials).Methods("GET")
	v1.HandleFunc("/stocks/{code}/dividends", d.Stocks.Dividends).Methods("GET")

	// Screener
	v1.HandleFunc("/screener", d.Screener.Screen).Methods("POST")
	v1.HandleFunc("/screener/presets", d.Screener.Presets).Methods("GET")
	v1.HandleFunc("/screener/presets/{id}", d.Screener.ScreenPreset).Methods("POST")

	// Alerts
	v1.HandleFunc("/alerts", d.Alerts.List).Methods("GET")
	v1.HandleFunc("/alerts", d.Alerts.Create).Methods("POST")
	v1.HandleFunc("/alerts/{id}", d.Alerts.Update).Methods("PUT")
	v1.HandleFunc("/alerts/{id}", d.Alerts.Delete).Methods("DELETE")

	// Articles (search before {id})
	v1.HandleFunc("/articles", d.Articles.List).Methods("GET")
	v1.HandleFunc("/articles", d.Articles.Create).Methods("POST")
	v1.HandleFunc("/articles/search", d.Articles.Search).Methods("GET")
	v1.HandleFunc("/articles/import", d.Articles.Import).Methods("POST")
	v1.HandleFunc("/articles/{id}", d.Articles.Get).Methods("GET")

	// AI
	v1.HandleFunc("/ai/chat", d.AI.Chat).Methods("POST")
	v1.HandleFunc("/ai/history", d.AI.History).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "not found"})
	})

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func rootHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"name":    ServiceName,
			"version": version,
		})
	}
}

// healthHandler reports ok with pool stats, or 503 degraded when the database ping fails
func healthHandler(db HealthChecker, env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		body := map[string]interface{}{"environment": env}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			hs, err := db.HealthCheck(ctx)
			if err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
				body["database"] = map[string]interface{}{"status": "down", "error": err.Error()}
			} else {
				body["database"] = map[string]interface{}{
					"status":           "ok",
					"response_time_ms": hs.ResponseTime.Milliseconds(),
					"pool":             hs.Stats,
				}
			}
		}

		body["status"] = status
		writeJSON(w, code, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// websocket upgrades need the raw writer
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
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

					writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
						"success": false,
						"error":   "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
