package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/config"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
	"github.com/cory-johannsen/dungeon-client/internal/transport/ws"
)

// Path is where the websocket endpoint is served.
const Path = "/ws"

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server plays a scenario for every websocket client that connects.
type Server struct {
	cfg      config.DevServerConfig
	scenario *Scenario
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	players  map[string]struct{}
	httpSrv  *http.Server
	listener net.Listener
	running  bool
}

// NewServer creates a server for scenario.
//
// Precondition: scenario must be validated.
// Postcondition: Returns a Server ready to be started with ListenAndServe or mounted via Handler.
func NewServer(cfg config.DevServerConfig, scenario *Scenario, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		scenario: scenario,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		players:  make(map[string]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, s)
	return mux
}

// ServeHTTP upgrades the request and plays the scenario until the client leaves or the
// server stops.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Stop waits on wg, so no session may join once it has begun.
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		http.Error(w, "server stopping", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	start := time.Now()
	logger := s.logger.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("remote_addr", r.RemoteAddr),
	)
	logger.Info("client connected")

	conn := ws.NewConn(raw, ws.Options{WriteTimeout: writeTimeout, Logger: logger})
	defer conn.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	match := NewMatch(s.scenario, conn, s, s.cfg.RoundDelay, logger)
	defer match.Close()

	err = conn.ReadLoop(ctx, func(env protocol.Envelope) {
		if err := match.Handle(ctx, env); err != nil {
			logger.Debug("replying to client", zap.Error(err))
			cancel()
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("session ended", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}

// Claim reserves playerID for one connection.
//
// Postcondition: Returns false if another connection holds playerID.
func (s *Server) Claim(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[playerID]; ok {
		return false
	}
	s.players[playerID] = struct{}{}
	return true
}

// Release frees playerID.
func (s *Server) Release(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, playerID)
}

// ListenAndServe listens on the configured address and serves until Stop is called.
// This method blocks until the server is stopped.
//
// Precondition: The server must not already be running.
// Postcondition: The listener is closed when this method returns.
func (s *Server) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: writeTimeout}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.httpSrv = srv
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Info("devserver listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("scenario", s.scenario.Name),
		zap.Duration("startup", time.Since(start)),
	)

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// Stop closes the listener, ends every session and waits for them to finish.
//
// Postcondition: All connections are closed and goroutines have exited.
func (s *Server) Stop() {
	s.mu.Lock()
	s.cancel()
	srv := s.httpSrv
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutting down http server", zap.Error(err))
		}
	}
	// Hijacked websocket connections are not tracked by Shutdown.
	s.wg.Wait()

	if wasRunning {
		s.logger.Info("devserver stopped")
	}
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// IsRunning returns whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
