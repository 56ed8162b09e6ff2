// Package rest assembles the chi router for the analytics trigger API.
package rest

import (
	"net/http"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/services"
	"lorekeeper-backend/interfaces/http/rest/handlers"
	"lorekeeper-backend/interfaces/http/rest/middleware"
	"lorekeeper-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	orchestrator  services.UserAnalyzer
	relationships services.RelationshipRunner
	cache         *services.AnalyticsCache
	events        ports.ContinuityEventRepository
	metrics       *observability.Collector
	logger        *zap.Logger
	enableCORS    bool
}

// NewRouter creates a new router instance
func NewRouter(
	orchestrator services.UserAnalyzer,
	relationships services.RelationshipRunner,
	cache *services.AnalyticsCache,
	events ports.ContinuityEventRepository,
	metrics *observability.Collector,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		orchestrator:  orchestrator,
		relationships: relationships,
		cache:         cache,
		events:        events,
		metrics:       metrics,
		logger:        logger,
		enableCORS:    enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.lorekeeper.app"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			analysisHandler := handlers.NewAnalysisHandler(rt.orchestrator, rt.events, rt.logger)
			r.Post("/analysis", analysisHandler.TriggerAnalysis)
			r.Get("/events", analysisHandler.ListEvents)

			relationshipHandler := handlers.NewRelationshipHandler(rt.relationships, rt.cache, rt.logger)
			r.Get("/relationships", relationshipHandler.GetRelationships)
			r.Delete("/cache", relationshipHandler.InvalidateCache)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
