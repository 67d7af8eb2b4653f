package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/discovery"
	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/version"
	"github.com/muurk/formwizard/internal/wizard"
)

// Config holds the server configuration
type Config struct {
	Host        string
	Port        int
	Token       string        // Bearer token for /api/records (empty = open)
	SessionTTL  time.Duration // Idle session lifetime (0 = never expire)
	DefaultForm string        // Form used when a create request names none
	Advertise   bool          // Announce over mDNS
	Instance    string        // mDNS instance name (default: hostname)
	LogLevel    string

	Catalog *wizard.Catalog
	Records RecordService // optional
}

// Server serves wizard sessions over HTTP and websockets
type Server struct {
	config     *Config
	store      *Store
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	ad         *discovery.Advertisement
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.LogLevel != "" {
		if err := logging.Initialize(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	if config.Catalog == nil {
		catalog, err := wizard.NewCatalog()
		if err != nil {
			return nil, err
		}
		config.Catalog = catalog
	}
	if config.DefaultForm == "" {
		config.DefaultForm = "registration"
	}
	if _, ok := config.Catalog.Lookup(config.DefaultForm); !ok {
		return nil, fmt.Errorf("default form %q not found", config.DefaultForm)
	}

	s := &Server{
		config: config,
		store:  NewStore(config.SessionTTL),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the session store
func (s *Server) Store() *Store {
	return s.store
}

// Addr returns the listen address once the server is listening
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens and serves until ctx ends or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	logging.Info("formwizard server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("forms", len(s.config.Catalog.List())),
		zap.Duration("session_ttl", s.config.SessionTTL),
		zap.Bool("token", s.config.Token != ""),
	)

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if s.config.SessionTTL > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.store.Run(sweepCtx, sweepInterval(s.config.SessionTTL))
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
	case <-ctx.Done():
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) advertise(addr net.Addr) {
	instance := s.config.Instance
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance == "" {
		instance = "formwizard"
	}

	port := s.config.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}

	ids := make([]string, 0)
	for _, d := range s.config.Catalog.List() {
		ids = append(ids, d.ID)
	}

	ad, err := discovery.Advertise(instance, port, discovery.TXT{
		"version": version.Version,
		"forms":   strings.Join(ids, ","),
		"path":    "/api",
	})
	if err != nil {
		logging.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.ad = ad
	s.mu.Unlock()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	ad, srv := s.ad, s.httpServer
	s.ad = nil
	s.mu.Unlock()

	ad.Shutdown()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	// Ending the sessions closes every websocket subscription
	s.store.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		return time.Second
	}
	if interval > time.Minute {
		return time.Minute
	}
	return interval
}
