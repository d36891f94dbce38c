package monitoring

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 10 * time.Second

// Server exposes collected windowing metrics over HTTP.
//
//	/metrics       Prometheus exposition of the gatherer
//	/metrics.json  every recorded operation
//	/summary       aggregate statistics
//	/health        liveness
type Server struct {
	collector *MetricsCollector
	server    *http.Server
}

// NewServer creates a metrics server listening on addr
func NewServer(collector *MetricsCollector, gatherer prometheus.Gatherer, addr string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		collector: collector,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/metrics.json", s.handleMetrics)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/health", s.handleHealth)

	return s
}

// Handler returns the server's request router
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Stop is called. It never returns http.ErrServerClosed.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.collector.GetMetrics())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.collector.GetSummary())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"enabled":   s.collector.IsEnabled(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
