package cli

import (
	coreapp "codeinspector/internal/core/app"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sidecarShutdownTimeout = 3 * time.Second

// metricsSidecar serves /metrics and /health for modes that have no HTTP
// surface of their own: watch, TUI and MCP.
type metricsSidecar struct {
	health *coreapp.HealthService
	srv    *http.Server
	ln     net.Listener
}

func newMetricsSidecar(health *coreapp.HealthService) *metricsSidecar {
	return &metricsSidecar{health: health}
}

func (m *metricsSidecar) routes() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := m.health.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return r
}

// listen binds addr and serves in the background. Bind errors are returned
// so the caller can report a busy port.
func (m *metricsSidecar) listen(ctx context.Context, addr string) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	m.ln = ln
	m.srv = &http.Server{Handler: m.routes(), ReadHeaderTimeout: 5 * time.Second}
	slog.Info("metrics sidecar listening", "addr", ln.Addr().String())

	go func() {
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics sidecar stopped", "error", err)
		}
	}()
	return nil
}

func (m *metricsSidecar) shutdown() {
	if m.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sidecarShutdownTimeout)
	defer cancel()
	if err := m.srv.Shutdown(ctx); err != nil {
		slog.Warn("metrics sidecar shutdown", "error", err)
	}
}
