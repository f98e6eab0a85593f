package ipc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Handler processes IPC requests.
type Handler interface {
	// HandleMessage processes a request and returns a response.
	HandleMessage(ctx context.Context, msg *Message) (*Message, error)
}

// HandlerFunc is a function that implements Handler.
type HandlerFunc func(ctx context.Context, msg *Message) (*Message, error)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// ServerConfig configures the IPC server.
type ServerConfig struct {
	// SocketPath is the Unix socket path. On Windows the server listens
	// on loopback TCP and writes the bound port to this path.
	SocketPath string

	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig(socketPath string) ServerConfig {
	return ServerConfig{
		SocketPath:     socketPath,
		Version:        "1.0.0",
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxConnections: 16,
	}
}

// Server accepts control connections and dispatches requests to the
// handler.
type Server struct {
	cfg      ServerConfig
	handler  Handler
	listener net.Listener

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewServer creates a new IPC server.
func NewServer(cfg ServerConfig, handler Handler) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	listener, err := listen(s.cfg.SocketPath)
	if err != nil {
		return err
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}

	cleanupListener(s.cfg.SocketPath)
	return nil
}

// Addr returns the listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.mu.Lock()
		if len(s.conns) >= s.cfg.MaxConnections {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		msg, err := ReadMessage(conn)
		if err != nil {
			if err == io.EOF || errors.Is(err, net.ErrClosed) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return
			}
			return
		}

		response, err := s.processMessage(msg)
		if err != nil {
			response = NewErrorMessage(msg.Header.RequestID, ErrInternalError, err.Error())
		}
		if response == nil {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := response.Write(conn); err != nil {
			return
		}
	}
}

func (s *Server) processMessage(msg *Message) (*Message, error) {
	if msg.Header.Type == MsgPing {
		return NewMessage(MsgPong, msg.Header.RequestID, nil), nil
	}
	if s.handler == nil {
		return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "no handler"), nil
	}
	return s.handler.HandleMessage(s.ctx, msg)
}
