package log

import (
	"strings"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/command"
)

// Event is one captured occurrence on a console session.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the console session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction of the traffic the event describes.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Source names the stream the session runs on (serial:/dev/ttyACM0,
	// tcp:192.168.1.5:40312, stdio).
	Source string `cbor:"5,keyasint,omitempty"`

	// Mode is the console mode when the event was recorded.
	Mode command.Mode `cbor:"6,keyasint"`

	// Type-specific payload (one of these is set).
	Line        *LineEvent        `cbor:"10,keyasint,omitempty"`
	Response    *ResponseEvent    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Session     *SessionEvent     `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates traffic flow relative to the console.
type Direction uint8

const (
	// DirectionIn is input received from the stream.
	DirectionIn Direction = 0
	// DirectionOut is output written to the stream.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies events.
type Category uint8

const (
	// CategoryLine is a completed command line.
	CategoryLine Category = 0
	// CategoryResponse is a response line.
	CategoryResponse Category = 1
	// CategoryState is a change of mode or max address.
	CategoryState Category = 2
	// CategorySession is a session opening or closing.
	CategorySession Category = 3
	// CategoryError is a stream or persistence failure.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "LINE"
	case CategoryResponse:
		return "RESPONSE"
	case CategoryState:
		return "STATE"
	case CategorySession:
		return "SESSION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection parses a direction name (case-insensitive).
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(s) {
	case "IN":
		return DirectionIn, true
	case "OUT":
		return DirectionOut, true
	}
	return 0, false
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, bool) {
	for c := CategoryLine; c <= CategoryError; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return 0, false
}

// LineEvent is a command line handed to the dispatcher.
type LineEvent struct {
	// Text of the line without terminator.
	Text string `cbor:"1,keyasint"`

	// Forced is set when the line was completed by buffer overflow.
	Forced bool `cbor:"2,keyasint,omitempty"`

	// Verb is the matched command verb, empty for rejected lines.
	Verb string `cbor:"3,keyasint,omitempty"`

	// Invalid is set when the line was rejected.
	Invalid bool `cbor:"4,keyasint,omitempty"`
}

// ResponseEvent is one response line.
type ResponseEvent struct {
	Text string `cbor:"1,keyasint"`
}

// StateChangeEvent records a change of the console state.
type StateChangeEvent struct {
	// Verb is the command that caused the change.
	Verb string `cbor:"1,keyasint"`

	OldMode       command.Mode `cbor:"2,keyasint"`
	NewMode       command.Mode `cbor:"3,keyasint"`
	OldMaxAddress int          `cbor:"4,keyasint"`
	NewMaxAddress int          `cbor:"5,keyasint"`
}

// SessionEventType distinguishes session events.
type SessionEventType uint8

const (
	// SessionOpened is recorded when a session starts.
	SessionOpened SessionEventType = 0
	// SessionClosed is recorded when a session ends.
	SessionClosed SessionEventType = 1
)

// String returns the session event name.
func (t SessionEventType) String() string {
	switch t {
	case SessionOpened:
		return "OPENED"
	case SessionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SessionEvent records a session lifecycle transition.
type SessionEvent struct {
	Type SessionEventType `cbor:"1,keyasint"`

	// Reason is set on close (e.g. "EOF", "shutdown").
	Reason string `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData describes a failure.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`

	// Context names the operation that failed (e.g. "WriteResponse").
	Context string `cbor:"2,keyasint,omitempty"`
}
