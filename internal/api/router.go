package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/internal/websocket"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// Router wires the API handlers into an HTTP route tree
type Router struct {
	handler  *Handler
	config   *config.Config
	logger   *logger.Logger
	wsServer *websocket.Server
}

// NewRouter creates a new API router
func NewRouter(briefingService *briefing.Service, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(briefingService, cfg, log, wsServer),
		config:   cfg,
		logger:   log.Named("api-router"),
		wsServer: wsServer,
	}
}

// Routes returns the route tree for the HTTP server
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/briefing", rt.handler.GetBriefing)
		r.Get("/briefing/html", rt.handler.GetBriefingHTML)
		r.Get("/airports/{code}", rt.handler.GetAirport)
		r.Get("/health", rt.handler.GetHealth)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", rt.wsServer.HandleConnection)

	// Static web UI, served dynamically so edits show up without a restart
	staticHandler := NewStaticFileHandler(rt.config.Server.StaticFilesDir, rt.logger)
	r.NotFound(staticHandler.ServeHTTP)

	return r
}

// corsMiddleware sets CORS headers for the configured origins. An
// entry of "*" allows any origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
