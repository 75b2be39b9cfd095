package stream

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Serial defaults match the reference firmware UART: 115200 baud, 8N1.
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultParity      = "N"
	DefaultStopBits    = 1
	DefaultReadTimeout = 500 * time.Millisecond
)

// SerialConfig configures a UART stream.
type SerialConfig struct {
	// Path is the serial device (e.g. /dev/ttyACM0 or COM3).
	Path string

	// BaudRate in bits per second.
	BaudRate int

	// DataBits per character (5-8).
	DataBits int

	// Parity is one of N, E, O, M, S.
	Parity string

	// StopBits is 1 or 2.
	StopBits int

	// ReadTimeout bounds each low-level read. A timed-out read is retried,
	// so this only controls how quickly Close is noticed.
	ReadTimeout time.Duration
}

// DefaultSerialConfig returns an 8N1 115200 baud configuration for path.
func DefaultSerialConfig(path string) SerialConfig {
	return SerialConfig{
		Path:        path,
		BaudRate:    DefaultBaudRate,
		DataBits:    DefaultDataBits,
		Parity:      DefaultParity,
		StopBits:    DefaultStopBits,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Mode converts the configuration to a serial.Mode.
func (c SerialConfig) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}

	switch strings.ToUpper(c.Parity) {
	case "", "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	case "M":
		mode.Parity = serial.MarkParity
	case "S":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unsupported parity %q (use N, E, O, M, S)", c.Parity)
	}

	switch c.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d (use 1 or 2)", c.StopBits)
	}

	if c.BaudRate <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d (use 5-8)", c.DataBits)
	}

	return mode, nil
}

// ListSerialPorts returns the serial devices present on the host.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// uart is the subset of serial.Port used by SerialStream.
type uart interface {
	io.ReadWriteCloser
}

// SerialStream is a Stream over a UART.
type SerialStream struct {
	port uart
	path string

	mu     sync.Mutex
	closed bool

	// wmu serializes writers so response lines are not interleaved.
	wmu sync.Mutex
}

// OpenSerial opens and configures the UART described by cfg.
func OpenSerial(cfg SerialConfig) (*SerialStream, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Path, err)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return newSerialStream(port, cfg.Path), nil
}

func newSerialStream(port uart, path string) *SerialStream {
	return &SerialStream{port: port, path: path}
}

// Path returns the device path.
func (s *SerialStream) Path() string {
	return s.path
}

// ReadChar blocks until a character arrives. Read timeouts of the port are
// absorbed here and never surface to the caller.
func (s *SerialStream) ReadChar() (byte, error) {
	var buf [1]byte
	for {
		if s.isClosed() {
			return 0, ErrClosed
		}

		n, err := s.port.Read(buf[:])
		if n == 1 {
			return buf[0], nil
		}
		if err != nil {
			if s.isClosed() {
				return 0, ErrClosed
			}
			return 0, fmt.Errorf("serial read: %w", err)
		}
		// n == 0 and no error: read timeout, poll again
	}
}

// WriteChar writes a single byte.
func (s *SerialStream) WriteChar(c byte) error {
	return s.write([]byte{c})
}

// WriteString writes str.
func (s *SerialStream) WriteString(str string) error {
	return s.write([]byte(str))
}

func (s *SerialStream) write(p []byte) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("serial write: %w", io.ErrShortWrite)
		}
		p = p[n:]
	}
	return nil
}

// Close closes the port. It is safe to call Close multiple times.
func (s *SerialStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.port.Close()
}

func (s *SerialStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Compile-time interface satisfaction check.
var _ Stream = (*SerialStream)(nil)
