// Package stream provides the blocking character streams the console reads
// commands from and writes responses to.
//
// A Stream may be backed by any io.Reader/io.Writer pair (standard I/O, a
// TCP connection, a test buffer) or by a UART opened with OpenSerial.
package stream

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by operations on a closed stream.
var ErrClosed = errors.New("stream closed")

// Source reads one character at a time. ReadChar blocks until a character
// is available, the stream is closed or the underlying reader fails.
type Source interface {
	ReadChar() (byte, error)
}

// Sink writes characters. Writes block until the data has been handed to
// the underlying writer.
type Sink interface {
	WriteChar(c byte) error
	WriteString(s string) error
}

// Stream is a bidirectional character stream.
type Stream interface {
	Source
	Sink
	Close() error
}

// IOStream adapts an io.Reader and io.Writer to a Stream.
type IOStream struct {
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer

	mu     sync.Mutex
	closed bool
}

// NewIOStream creates a stream reading from r and writing to w. Closing the
// stream does not close r or w.
func NewIOStream(r io.Reader, w io.Writer) *IOStream {
	return &IOStream{
		r: bufio.NewReader(r),
		w: w,
	}
}

// NewConnStream creates a stream over a connection. Closing the stream
// closes the connection, which also unblocks a pending ReadChar.
func NewConnStream(c io.ReadWriteCloser) *IOStream {
	s := NewIOStream(c, c)
	s.closer = c
	return s
}

// ReadChar returns the next byte of the reader.
func (s *IOStream) ReadChar() (byte, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	c, err := s.r.ReadByte()
	if err != nil && s.isClosed() {
		return 0, ErrClosed
	}
	return c, err
}

// WriteChar writes a single byte.
func (s *IOStream) WriteChar(c byte) error {
	return s.write([]byte{c})
}

// WriteString writes s.
func (s *IOStream) WriteString(str string) error {
	return s.write([]byte(str))
}

func (s *IOStream) write(p []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	_, err := s.w.Write(p)
	return err
}

// Close marks the stream closed and closes the underlying connection, if
// any. It is safe to call Close multiple times.
func (s *IOStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *IOStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Compile-time interface satisfaction check.
var _ Stream = (*IOStream)(nil)
