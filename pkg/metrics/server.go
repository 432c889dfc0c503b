package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

// Config controls whether and where the Prometheus scrape endpoint is
// served.
type Config struct {
	Enabled bool
	Port    int
	Path    string
}

// Server serves a Collector's registry over HTTP for Prometheus to scrape.
type Server struct {
	cfg       Config
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewServer returns a Server for the given collector.
func NewServer(cfg Config, collector *Collector, log *logger.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	return &Server{
		cfg:       cfg,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start serves metrics until ctx is done. It returns nil immediately if the
// server is disabled.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, promhttp.HandlerFor(s.collector.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	s.server = &http.Server{Handler: mux}

	s.log.Info("starting metrics server",
		logger.Int("port", listener.Addr().(*net.TCPAddr).Port),
		logger.String("path", s.cfg.Path))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics: shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Stop shuts the server down if it is running.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
