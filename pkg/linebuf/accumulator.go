package linebuf

// Buffer limits.
const (
	// Capacity is the number of usable characters in the line buffer.
	Capacity = 39

	// Threshold is the length beyond which the next character forces the
	// buffered line to complete.
	Threshold = 38

	// Terminator ends a line.
	Terminator = '\n'
)

// Line is a completed command line.
type Line struct {
	// Text is the buffered content, without the terminator.
	Text string

	// Forced is set when the line was completed by buffer overflow rather
	// than by a terminator.
	Forced bool
}

// Accumulator collects characters into a bounded line buffer.
// The zero value is ready to use. It is not safe for concurrent use.
type Accumulator struct {
	buf [Capacity]byte
	n   int
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Accepted reports whether c is stored when fed to an Accumulator.
func Accepted(c byte) bool {
	return c >= 0x20 && c <= 0x7e
}

// Feed consumes one character. It returns the completed line and true when
// c ends a line; the buffer is empty again when Feed returns true.
func (a *Accumulator) Feed(c byte) (Line, bool) {
	if c != Terminator && !Accepted(c) {
		return Line{}, false
	}

	if c == Terminator || a.n > Threshold {
		line := Line{
			Text:   string(a.buf[:a.n]),
			Forced: c != Terminator,
		}
		a.Reset()
		return line, true
	}

	a.buf[a.n] = c
	a.n++
	return Line{}, false
}

// Len returns the number of buffered characters.
func (a *Accumulator) Len() int {
	return a.n
}

// Pending returns the buffered characters of the incomplete line.
func (a *Accumulator) Pending() string {
	return string(a.buf[:a.n])
}

// Reset clears every buffered position and sets the length to zero.
func (a *Accumulator) Reset() {
	clear(a.buf[:])
	a.n = 0
}
