package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HerbHall/storefront/internal/plugin"
	"github.com/HerbHall/storefront/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// healthTimeout bounds the plugin health probes of one /health request.
const healthTimeout = 3 * time.Second

// Server is the main storefront server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a new Server instance. Metrics from gatherer are served on
// /metrics; a nil gatherer disables the endpoint.
func New(addr string, reg *plugin.Registry, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
			// No WriteTimeout: session streams are long-lived websockets.
			IdleTimeout: 60 * time.Second,
		},
		registry: reg,
		gatherer: gatherer,
		logger:   logger,
		mux:      mux,
	}

	s.registerCoreRoutes()
	s.mountPluginRoutes()

	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/plugins", s.handlePlugins)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// mountPluginRoutes registers all plugin routes under /api/v1/{plugin}/.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, pluginName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status. The overall status is
// degraded when any plugin reports degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	plugins := s.registry.Health(ctx)
	status := plugin.HealthOK
	for _, h := range plugins {
		if h.Status != plugin.HealthOK {
			status = plugin.HealthDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Storefront-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"service": "storefront",
		"version": version.Map(),
		"plugins": plugins,
	})
}

// handlePlugins returns the list of registered plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	plugins := s.registry.All()
	type pluginResponse struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description,omitempty"`
		Enabled     bool   `json:"enabled"`
	}
	info := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		pr := pluginResponse{
			Name:    p.Name(),
			Version: p.Version(),
			Enabled: s.registry.Enabled(p.Name()),
		}
		if d, ok := p.(plugin.Describer); ok {
			pr.Description = d.Description()
		}
		info = append(info, pr)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Storefront-Version", version.Short())
	_ = json.NewEncoder(w).Encode(info)
}
