package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/visibility"
)

// Server exposes the visibility engine over HTTP and websocket.
type Server struct {
	engine *visibility.Engine
	router *mux.Router

	httpServer *http.Server
	listener   net.Listener
	listenerMu sync.RWMutex

	// Open stream connections, closed on Stop.
	streams   map[*websocket.Conn]struct{}
	streamsMu sync.Mutex

	evaluated atomic.Uint64

	running atomic.Bool
	closed  atomic.Bool

	config Config
	logger log.Log
}

// Config holds server configuration
type Config struct {
	ListenAddr string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps request bodies and stream messages.
	MaxBodyBytes int64

	// Workers bounds parallel evaluation of one scene.
	Workers int

	// Token, when set, must be presented as a bearer token, or as the token
	// query parameter on streams.
	Token string

	// Policy applies to requests that carry no threshold of their own.
	Policy visibility.Policy
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    4 << 20,
	}
}

// NewServer creates a server answering with engine.
func NewServer(engine *visibility.Engine, config Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultServerConfig().MaxBodyBytes
	}

	s := &Server{
		engine:  engine,
		streams: make(map[*websocket.Conn]struct{}),
		config:  config,
		logger:  logger.With(log.String("component", "server")),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.String("strategy", engine.Strategy().Name()))

	return s
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler { return s.router }

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.ListenAddr
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return errors.Join(ErrListenerFailed, err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Stop drains HTTP requests, closes open streams and marks the server closed.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.closed.Store(true)

	s.logger.Info("Stopping server")

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	err := s.httpServer.Shutdown(ctx)

	s.streamsMu.Lock()
	for conn := range s.streams {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	clear(s.streams)
	s.streamsMu.Unlock()

	s.logger.Info("Server stopped", log.Int("evaluated", int(s.evaluated.Load())))
	return err
}

func (s *Server) trackStream(conn *websocket.Conn) {
	s.streamsMu.Lock()
	s.streams[conn] = struct{}{}
	s.streamsMu.Unlock()
}

func (s *Server) untrackStream(conn *websocket.Conn) {
	s.streamsMu.Lock()
	delete(s.streams, conn)
	s.streamsMu.Unlock()
}
