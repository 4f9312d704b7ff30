package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"autosales-dashboard/internal/errors"
	"autosales-dashboard/internal/handlers"
	"autosales-dashboard/internal/observability"
	"autosales-dashboard/internal/services"
	"autosales-dashboard/internal/ui/layout"
)

type Route struct {
	Path    string
	Method  string
	Handler http.Handler
}

type Server struct {
	analytics     *services.Analytics
	router        *httprouter.Router
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	chartHandlers *handlers.ChartHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
	Static    fs.FS
}

func NewServer(analytics *services.Analytics, l layout.Layout, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:     analytics,
		router:        httprouter.New(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:   handlers.NewSSEHandlers(analytics, l, logger),
		chartHandlers: handlers.NewChartHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) Routes(templateHandlers *TemplateHandlers) []Route {
	return []Route{
		// Dashboard
		{Path: "/", Method: http.MethodGet, Handler: templateHandlers.Dashboard},
		{Path: "/health", Method: http.MethodGet, Handler: http.HandlerFunc(s.apiHandlers.HandleHealth)},
		{Path: "/admin/stats", Method: http.MethodGet, Handler: http.HandlerFunc(s.apiHandlers.HandleStats)},

		// REST API
		{Path: "/api/views/:report", Method: http.MethodGet, Handler: http.HandlerFunc(s.apiHandlers.HandleViews)},
		{Path: "/charts/:report/:index", Method: http.MethodGet, Handler: http.HandlerFunc(s.chartHandlers.HandleSVG)},

		// Datastar SSE
		{Path: "/sse/report", Method: http.MethodGet, Handler: http.HandlerFunc(s.sseHandlers.HandleReport)},
	}
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	for _, route := range s.Routes(templateHandlers) {
		s.router.Handler(route.Method, route.Path, route.Handler)
	}

	if templateHandlers.Static != nil {
		s.router.ServeFiles("/static/*filepath", http.FS(templateHandlers.Static))
	}

	s.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := observability.GetRequestID(r.Context())
		errors.WriteError(w, s.logger, errors.NotFound("route not found"), requestID)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
