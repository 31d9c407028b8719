package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/microcap/papertrade/internal/api/handlers"
	"github.com/microcap/papertrade/pkg/database"
	"github.com/microcap/papertrade/pkg/logger"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Portfolio *handlers.PortfolioHandler
	Trades    *handlers.TradesHandler
	Stocks    *handlers.StocksHandler
	Stream    *handlers.StreamHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(h Handlers, db *database.DB, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Portfolio endpoints
	api.HandleFunc("/portfolio", h.Portfolio.GetSummary).Methods("GET")
	api.HandleFunc("/portfolio/positions", h.Portfolio.GetPositions).Methods("GET")
	api.HandleFunc("/portfolio/history", h.Portfolio.GetHistory).Methods("GET")
	api.HandleFunc("/portfolio/cash", h.Portfolio.SetCash).Methods("POST")

	// Trade endpoints
	api.HandleFunc("/trades/buy", h.Trades.Buy).Methods("POST")
	api.HandleFunc("/trades/sell", h.Trades.Sell).Methods("POST")
	api.HandleFunc("/trades/history", h.Trades.GetHistory).Methods("GET")

	// Market data and analysis endpoints
	api.HandleFunc("/stocks/quote/{symbol}", h.Stocks.GetQuote).Methods("GET")
	api.HandleFunc("/stocks/quotes", h.Stocks.GetQuotes).Methods("POST")
	api.HandleFunc("/stocks/search", h.Stocks.Search).Methods("GET")
	api.HandleFunc("/stocks/history/{symbol}", h.Stocks.GetHistory).Methods("GET")
	api.HandleFunc("/stocks/analyze/{symbol}", h.Stocks.Analyze).Methods("GET")
	api.HandleFunc("/stocks/top-picks", h.Stocks.GetTopPicks).Methods("GET")
	api.HandleFunc("/stocks/stream", h.Stream.Stream).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware)

	return r
}

// healthCheckHandler returns server and database health
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "ok"
		if err := db.Ping(r.Context()); err != nil {
			dbStatus = "unreachable"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"service":  "papertrade-api",
			"database": dbStatus,
		})
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

// corsMiddleware allows the browser frontend to call the API cross-origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
