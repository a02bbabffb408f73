// Package server provides the TCP protocol server for the vector store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/protocol"
	"github.com/hyperjump/kioku/internal/store"
	"go.uber.org/zap"
)

// acceptPollInterval bounds each accept wait so shutdown is noticed within
// roughly one interval even when no traffic arrives.
const acceptPollInterval = time.Second

// Server owns the listening socket and serves store/search requests.
// Connections are accepted and handled strictly one at a time: a request is
// read, dispatched, and answered before the next connection is accepted, so
// operations observe a total order matching arrival order and the store needs
// no coordination beyond its own lock.
type Server struct {
	config   *config.ServerConfig
	embedder embedding.Embedder
	store    *store.Store
	logger   *zap.Logger

	listener *net.TCPListener
}

// New creates a server with the given dependencies. A nil logger disables logging.
func New(cfg *config.ServerConfig, emb embedding.Embedder, st *store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:   cfg,
		embedder: emb,
		store:    st,
		logger:   logger,
	}
}

// Listen binds the listening socket. Startup failures surface here, before any
// connection is accepted.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = l.(*net.TCPListener)
	s.logger.Info("listening", zap.String("addr", l.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts and handles connections until ctx is canceled, then closes the
// listener and returns nil. Cancellation is observed between connections: each
// accept waits at most acceptPollInterval before the context is re-checked, and
// a connection already being handled finishes its request/response cycle first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening; call Listen first")
	}
	defer s.listener.Close()

	for {
		if ctx.Err() != nil {
			s.logger.Info("shutting down")
			return nil
		}

		_ = s.listener.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		s.handleConn(conn)
	}
}

// handleConn serves exactly one request on conn. Framing violations close the
// connection without a response; decode and request-shape failures get a
// structured error response; a failed response write is absorbed so the accept
// loop always continues.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	body, err := protocol.ReadMessage(conn)
	if err != nil {
		s.logger.Warn("dropping connection", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		return
	}

	resp := s.dispatch(body)
	if err := protocol.WriteMessage(conn, resp); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}
