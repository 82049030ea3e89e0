// Package api serves the analysis engines over HTTP and provides a client
// for a remote server.
package api

import (
	"codeinspector/internal/core/app"
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/shared/util"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	limiterTTL      = 10 * time.Minute
	bodyOverhead    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	service  ports.AnalysisService
	health   *app.HealthService
	cfg      config.Server
	maxBody  int64
	spec     *openapi3.T
	limiters *util.ClientLimiters
	server   *http.Server
}

// NewServer validates the embedded OpenAPI document and prepares the router.
// maxSourceBytes bounds one source text; request bodies may carry two of
// them plus JSON overhead.
func NewServer(service ports.AnalysisService, health *app.HealthService, cfg config.Server, maxSourceBytes int64) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s := &Server{
		service: service,
		health:  health,
		cfg:     cfg,
		maxBody: bodyOverhead,
		spec:    spec,
	}
	if maxSourceBytes > 0 {
		s.maxBody += 2 * maxSourceBytes
	}
	if cfg.RateLimit > 0 {
		s.limiters = util.NewClientLimiters(cfg.RateLimit, cfg.Burst, limiterTTL)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", s.handleOpenAPI)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Use(s.limitBody)
			if s.cfg.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.cfg.RequestTimeout))
			}
			r.Post("/code/metrics", s.handleMetrics)
			r.Post("/code/graph", s.handleStructure)
			r.Post("/code/compare", s.handleCompare)
			r.Post("/code-analysis/analyze", s.handleSmells)
			r.Post("/security/analyze", s.handleSecurity)
			r.Post("/tree-sitter", s.handleSyntax)
			r.Post("/analyze", s.handleAnalyze)
		})
	})
	return r
}

// ListenAndServe blocks until ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "addr", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		s.closeLimiters()
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	defer s.closeLimiters()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) closeLimiters() {
	if s.limiters != nil {
		s.limiters.Close()
	}
}
