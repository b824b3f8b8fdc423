// Package server accepts control connections, enforces the session cap, and
// hands each connection to a protocol handler.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infodancer/ftpd/internal/logging"
)

// ConnectionHandler processes a single accepted control connection.
// The handler owns the connection until it returns; the server closes it
// afterwards.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// Config holds configuration for creating a new Server.
type Config struct {
	Addr           string
	MaxSessions    int
	CommandTimeout time.Duration
	IdleTimeout    time.Duration
	Logger         *slog.Logger
	Handler        ConnectionHandler
}

// Server coordinates the control listener and active sessions.
type Server struct {
	cfg     Config
	limiter *SessionLimiter
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("connection handler is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		limiter: NewSessionLimiter(cfg.MaxSessions),
		logger:  logger,
	}, nil
}

// Run listens on the configured address and serves control connections
// until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening",
		slog.String("address", s.cfg.Addr),
		slog.Int("max_sessions", s.cfg.MaxSessions))

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		s.acceptLoop(ctx, ln)
	}()

	select {
	case <-ctx.Done():
	case <-acceptDone:
	}

	s.logger.Info("server shutting down")
	ln.Close()
	<-acceptDone
	s.wg.Wait()

	s.logger.Info("server stopped")
	return ctx.Err()
}

// Addr returns the listener address, once Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.logger.Error("accept error", slog.String("error", err.Error()))
				return
			}
		}

		if !s.limiter.TryAcquire() {
			s.logger.Warn("session cap reached, rejecting connection",
				slog.String("remote", conn.RemoteAddr().String()))
			_, _ = conn.Write([]byte("421 Too many users, closing control connection.\r\n"))
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func(conn net.Conn) {
			defer s.wg.Done()
			defer s.limiter.Release()
			s.serveConn(ctx, conn)
		}(conn)
	}
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn) {
	conn := NewConnection(netConn, s.cfg.CommandTimeout, s.cfg.IdleTimeout)
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := s.logger.With(
		slog.String("session_id", sessionID),
		slog.String("client_ip", conn.RemoteIP()))

	s.cfg.Handler(logging.WithContext(ctx, logger), conn)
}
