package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/uartcmd/uartcmd-go/pkg/console"
	"github.com/uartcmd/uartcmd-go/pkg/log"
	"github.com/uartcmd/uartcmd-go/pkg/stream"
)

// Defaults.
const (
	DefaultAddress        = ":2323"
	DefaultMaxConnections = 8
)

// BusyMessage is written to connections refused by the connection limit.
const BusyMessage = "Busy\r\n"

// ServerConfig configures a console server.
type ServerConfig struct {
	// Address to listen on (e.g., ":2323" or "127.0.0.1:2323").
	Address string

	// MaxConnections limits concurrent sessions (default: 8).
	MaxConnections int

	// Engine dispatches the lines of every session. Required.
	Engine *console.Engine

	// Logger for protocol capture (optional).
	Logger log.Logger

	// Reprompt writes the prompt after every response.
	Reprompt bool

	// OnConnect is called when a session starts.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a session ends.
	OnDisconnect func(conn *ServerConn, err error)

	// OnError is called for accept errors and refused connections.
	OnError func(err error)
}

// ErrBusy reports a connection refused by the connection limit.
var ErrBusy = errors.New("connection limit reached")

// Server accepts TCP console sessions.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a console server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all sessions.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}

	// Cancelling the context ends every session.
	s.cancel()
	s.listener.Close()
	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active sessions.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("accept error: %w", err))
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		sconn, ok := s.register(conn)
		if !ok {
			conn.Write([]byte(BusyMessage))
			conn.Close()
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("%w: refused %s", ErrBusy, conn.RemoteAddr()))
			}
			continue
		}

		s.wg.Add(1)
		go s.serve(sconn)
	}
}

// register tracks a new session unless the limit is reached.
func (s *Server) register(conn net.Conn) (*ServerConn, bool) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	if len(s.conns) >= s.config.MaxConnections {
		return nil, false
	}
	sconn := &ServerConn{
		conn:   conn,
		connID: uuid.New().String(),
	}
	s.conns[sconn] = struct{}{}
	return sconn, true
}

func (s *Server) serve(sconn *ServerConn) {
	defer s.wg.Done()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	session := console.New(s.config.Engine, stream.NewConnStream(sconn.conn), console.Options{
		SessionID: sconn.connID,
		Source:    "tcp:" + sconn.RemoteAddr().String(),
		Logger:    s.config.Logger,
		Reprompt:  s.config.Reprompt,
	})
	err := session.Run(s.ctx)

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn, err)
	}
}

// ServerConn is one client session.
type ServerConn struct {
	conn   net.Conn
	connID string
}

// RemoteAddr returns the remote address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ConnID returns the session ID.
func (c *ServerConn) ConnID() string {
	return c.connID
}
