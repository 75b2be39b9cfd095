package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Client defaults.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultQuietPeriod    = 200 * time.Millisecond
)

// ClientConfig configures a console client.
type ClientConfig struct {
	// ConnectTimeout is the connection timeout (default: 10s).
	ConnectTimeout time.Duration

	// QuietPeriod ends a response once no data arrived for this long
	// (default: 200ms).
	QuietPeriod time.Duration
}

// Client connects to console servers.
type Client struct {
	config ClientConfig
}

// NewClient creates a client.
func NewClient(config ClientConfig) *Client {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.QuietPeriod == 0 {
		config.QuietPeriod = DefaultQuietPeriod
	}
	return &Client{config: config}
}

// Connect dials a console. The banner is left unread; call ReadResponse to
// consume it.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &ClientConn{conn: conn, quiet: c.config.QuietPeriod}, nil
}

// ClientConn is a connection to a console.
type ClientConn struct {
	conn  net.Conn
	quiet time.Duration

	mu sync.Mutex
}

// RemoteAddr returns the console address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SendLine writes line followed by a newline.
func (c *ClientConn) SendLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

// ReadResponse reads until the connection stays quiet and returns the
// received lines. Carriage returns and leading prompts are dropped.
func (c *ClientConn) ReadResponse() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	buf := make([]byte, 256)
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.quiet)); err != nil {
			return nil, err
		}
		n, err := c.conn.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			if sb.Len() > 0 {
				return SplitResponse(sb.String()), err
			}
			return nil, err
		}
	}
	return SplitResponse(sb.String()), nil
}

// Exchange sends a line and returns its response lines.
func (c *ClientConn) Exchange(line string) ([]string, error) {
	if err := c.SendLine(line); err != nil {
		return nil, err
	}
	return c.ReadResponse()
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

// SplitResponse splits console output into lines.
func SplitResponse(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimRight(l, "\r")
		l = strings.TrimPrefix(l, ">")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
