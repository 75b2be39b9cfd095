package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/stream"
)

// ErrGaveUp is returned by Run when MaxAttempts consecutive opens failed.
var ErrGaveUp = errors.New("gave up reopening stream")

// State represents the supervised stream state.
type State uint8

const (
	// StateConnecting indicates an open attempt is in progress.
	StateConnecting State = iota

	// StateConnected indicates the stream is being served.
	StateConnected

	// StateReconnecting indicates the supervisor waits before the next attempt.
	StateReconnecting

	// StateClosed indicates Run has returned.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// OpenFunc opens the stream.
type OpenFunc func(ctx context.Context) (stream.Stream, error)

// ServeFunc serves an open stream until it ends. It must close the stream
// before returning.
type ServeFunc func(ctx context.Context, st stream.Stream) error

// Config configures a Supervisor.
type Config struct {
	Open  OpenFunc
	Serve ServeFunc

	// Backoff between attempts.
	Backoff BackoffConfig

	// MaxAttempts is the number of consecutive failed opens after which Run
	// gives up. Zero retries forever.
	MaxAttempts int

	// OnStateChange is called on every state transition.
	OnStateChange func(old, new State)

	// OnRetry is called before waiting for the next attempt. err is the
	// failure that caused the retry.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Supervisor reopens and reserves a stream until its context ends.
type Supervisor struct {
	cfg     Config
	backoff *Backoff

	mu    sync.RWMutex
	state State
}

// NewSupervisor creates a supervisor.
func NewSupervisor(cfg Config) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		backoff: NewBackoff(cfg.Backoff),
		state:   StateConnecting,
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	old := s.state
	s.state = st
	s.mu.Unlock()

	if old != st && s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(old, st)
	}
}

// Run opens and serves the stream until ctx is cancelled. It returns nil on
// cancellation and ErrGaveUp (wrapping the last open error) when
// MaxAttempts is exceeded.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateClosed)

	failures := 0
	for {
		s.setState(StateConnecting)
		st, err := s.cfg.Open(ctx)
		if err == nil {
			failures = 0
			s.backoff.Reset()
			s.setState(StateConnected)
			err = s.cfg.Serve(ctx, st)
		} else {
			failures++
			if s.cfg.MaxAttempts > 0 && failures >= s.cfg.MaxAttempts {
				return errors.Join(ErrGaveUp, err)
			}
		}

		if ctx.Err() != nil {
			return nil
		}

		s.setState(StateReconnecting)
		delay := s.backoff.Next()
		if s.cfg.OnRetry != nil {
			s.cfg.OnRetry(s.backoff.Attempts(), delay, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
