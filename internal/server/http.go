package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// StatusFunc returns the JSON document served under /stats
type StatusFunc func() any

// HTTPServer provides the status endpoints of the player and the monitor
type HTTPServer struct {
	server  *http.Server
	router  chi.Router
	logger  *slog.Logger
	config  *config.Config
	status  StatusFunc
	metrics *metrics.Metrics
	service string

	startTime time.Time
}

// HTTPServerOptions wires an HTTP server to its data sources
type HTTPServerOptions struct {
	Service  string // Reported by /health
	Status   StatusFunc
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // Served under /metrics, the default registry if nil
}

// NewHTTPServer creates a new HTTP status server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config, opts HTTPServerOptions) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		status:    opts.Status,
		metrics:   opts.Metrics,
		service:   opts.Service,
		startTime: time.Now(),
	}

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.withMetrics("/health", h.handleHealth))
	r.Get("/stats", h.withMetrics("/stats", h.handleStats))
	r.Get("/config", h.withMetrics("/config", h.handleConfig))
	r.Get("/", h.withMetrics("/", h.handleRoot))

	// No metrics for the metrics endpoint
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	h.router = r
	h.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the router
func (h *HTTPServer) Handler() http.Handler {
	return h.router
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(ww.statusCode), duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Run serves until ctx is done and then shuts the server down.
func (h *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.server.Addr, err)
	}

	h.logger.Info("Starting HTTP status server", slog.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP status server...")
	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   h.service,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).Round(time.Millisecond).String(),
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		http.Error(w, "No statistics available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		http.Error(w, "No configuration loaded", http.StatusServiceUnavailable)
		return
	}

	// The effective configuration after defaults and flags
	writeJSON(w, http.StatusOK, map[string]any{
		"stream": map[string]any{
			"server":       h.config.Stream.Server,
			"port":         h.config.Stream.Port,
			"client_group": h.config.Stream.ClientGroup,
			"service_id":   h.config.Stream.ServiceID,
			"frame_rate":   h.config.Stream.FrameRate,
			"jitter_free":  h.config.Stream.JitterFree,
			"scan_speed":   h.config.Stream.ScanSpeed,
			"color_shift":  h.config.Stream.ColorShift,
			"hold":         h.config.Stream.Hold,
		},
		"input": map[string]any{
			"file":     h.config.Input.File,
			"scale":    h.config.Input.Scale,
			"mirror_x": h.config.Input.MirrorX,
			"mirror_y": h.config.Input.MirrorY,
			"palette":  h.config.Input.Palette,
		},
		"monitor": map[string]any{
			"bind_address":    h.config.Monitor.BindAddress,
			"udp_port":        h.config.Monitor.UDPPort,
			"buffer_size":     h.config.Monitor.BufferSize,
			"session_timeout": h.config.Monitor.SessionTimeout,
		},
		"logging": map[string]any{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": h.service,
		"endpoints": map[string]string{
			"GET /":        "API documentation",
			"GET /health":  "Service health check",
			"GET /stats":   "Streaming statistics",
			"GET /config":  "Effective configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
