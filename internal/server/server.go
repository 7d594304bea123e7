package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// Instrumentation is optional; a nil Metrics skips request metrics and a
// nil Gatherer leaves /metrics unmounted.
type Instrumentation struct {
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers, inst Instrumentation) *Server {
	s := &Server{
		analytics:   analytics,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers, inst)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, inst Instrumentation) {
	r := s.router
	if inst.Metrics != nil {
		r.Use(middleware.Metrics(inst.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.BadRequest("method not allowed"))
	})

	// Dashboard routes
	if templateHandlers != nil && templateHandlers.Dashboard != nil {
		r.Get("/", templateHandlers.Dashboard)
	}
	r.Get("/health", s.apiHandlers.HandleHealth)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.apiHandlers.HandleStats)
		r.Post("/reload", s.apiHandlers.HandleReload)
	})

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.apiHandlers.HandleOptions)
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/sales-trend", s.apiHandlers.HandleSalesTrend)
		r.Get("/sales-by-source", s.apiHandlers.HandleSalesBySource)
		r.Get("/status-distribution", s.apiHandlers.HandleStatusDistribution)
		r.Get("/heatmap", s.apiHandlers.HandleHeatmap)
		r.Get("/top-products", s.apiHandlers.HandleTopProducts)
		r.Get("/top-customers", s.apiHandlers.HandleTopCustomers)
		r.Get("/insights", s.apiHandlers.HandleInsights)
		r.Get("/preview", s.apiHandlers.HandlePreview)
	})

	// Datastar SSE endpoints
	r.Get("/sse/dashboard", s.sseHandlers.HandleDashboard)

	if inst.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(inst.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
