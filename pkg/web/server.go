package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
)

// Config controls whether and where the status dashboard HTTP server
// listens.
type Config struct {
	Enabled bool
	Host    string
	Port    int
}

// StatusProvider supplies the current device/session state the /api/status
// endpoint reports. The bundled commands back it with the device store
// (neuroplay-scan) or the active session (neuroplay-record).
type StatusProvider func() interface{}

// Server is the status dashboard HTTP server: a JSON status endpoint plus
// a WebSocket event feed driven by a Hub.
type Server struct {
	cfg Config
	log *logger.Logger
	hub *Hub

	status StatusProvider

	mu     sync.RWMutex
	addr   string
	server *http.Server
}

// NewServer returns a Server. status may be nil, in which case /api/status
// reports an empty object.
func NewServer(cfg Config, log *logger.Logger, status StatusProvider) *Server {
	log = log.WithComponent("web")
	return &Server{
		cfg:    cfg,
		log:    log,
		hub:    NewHub(log),
		status: status,
	}
}

// Hub returns the server's WebSocket event hub, for broadcasting device and
// recording lifecycle events.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the address the server is listening on, valid once Start has
// begun serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start serves the dashboard until ctx is done. It returns nil immediately
// if the server is disabled.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("web server disabled")
		return nil
	}

	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/ws", s.hub.Handler())

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("starting web server", logger.String("address", s.addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web: shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "neuroplay-go",
		"time":    time.Now().Unix(),
	}); err != nil {
		s.log.Warn("failed to encode health response", logger.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var payload interface{} = map[string]interface{}{}
	if s.status != nil {
		payload = s.status()
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("failed to encode status response", logger.Error(err))
	}
}
