package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/ws"
)

// NewRouter assembles the API routes with the shared middleware stack.
// hub may be nil when streaming is disabled.
func NewRouter(srv *Server, hub *ws.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/watchlists", srv.handleWatchlists)
		api.Get("/income/{ticker}", srv.handleIncome)
		api.Post("/scan/income", srv.handleScanIncome)
		api.Get("/analyze/{ticker}", srv.handleAnalyze)
		api.Get("/scan/signals/{watchlist}", srv.handleScanSignals)
	})

	if hub != nil {
		r.Get("/ws/signals", hub.HandleUpgrade)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
			)
			next.ServeHTTP(w, r)
		})
	}
}
