package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/uartcmd/uartcmd-go/pkg/linebuf"
	"github.com/uartcmd/uartcmd-go/pkg/log"
	"github.com/uartcmd/uartcmd-go/pkg/stream"
)

// Options configures a Console.
type Options struct {
	// SessionID identifies the session in capture events.
	// A random UUID is used when empty.
	SessionID string

	// Source names the stream (e.g. "serial:/dev/ttyACM0", "stdio").
	Source string

	// Logger receives capture events (optional).
	Logger log.Logger

	// Reprompt writes the prompt character again after each response.
	Reprompt bool

	// NoBanner skips the startup banner.
	NoBanner bool
}

// Console runs the interpreter loop on one stream.
type Console struct {
	engine *Engine
	stream stream.Stream
	opts   Options
	logger log.Logger
	acc    *linebuf.Accumulator
	lines  int
}

// New creates a console for st that dispatches through engine.
func New(engine *Engine, st stream.Stream, opts Options) *Console {
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}
	return &Console{
		engine: engine,
		stream: st,
		opts:   opts,
		logger: log.OrNoop(opts.Logger),
		acc:    linebuf.New(),
	}
}

// SessionID returns the session identifier.
func (c *Console) SessionID() string {
	return c.opts.SessionID
}

// Lines returns the number of lines dispatched so far.
func (c *Console) Lines() int {
	return c.lines
}

// Run writes the banner and serves the stream until it ends, ctx is
// cancelled or the engine stops. The stream is closed when Run returns.
// End of input and cancellation are not errors.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the stream unblocks a pending ReadChar.
	go func() {
		<-ctx.Done()
		c.stream.Close()
	}()

	c.logSession(log.SessionOpened, "")

	err := c.serve(ctx)
	reason := "eof"
	switch {
	case ctx.Err() != nil:
		reason = "cancelled"
		err = nil
	case err != nil:
		reason = err.Error()
		c.logError(err, "session")
	}
	c.stream.Close()
	c.logSession(log.SessionClosed, reason)
	return err
}

func (c *Console) serve(ctx context.Context) error {
	if !c.opts.NoBanner {
		if err := WriteBanner(c.stream); err != nil {
			return fmt.Errorf("write banner: %w", err)
		}
	}

	for {
		ch, err := c.stream.ReadChar()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, stream.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		line, ok := c.acc.Feed(ch)
		if !ok {
			continue
		}
		if err := c.handleLine(ctx, line); err != nil {
			return err
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line linebuf.Line) error {
	res, err := c.engine.Dispatch(ctx, line.Text)
	if err != nil {
		return err
	}
	c.lines++

	c.log(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryLine,
		Mode:      res.Prev.Mode,
		Line: &log.LineEvent{
			Text:    line.Text,
			Forced:  line.Forced,
			Verb:    res.Verb,
			Invalid: res.Invalid,
		},
	})

	if res.Changed() {
		c.log(log.Event{
			Direction: log.DirectionIn,
			Category:  log.CategoryState,
			Mode:      res.Next.Mode,
			StateChange: &log.StateChangeEvent{
				Verb:          res.Verb,
				OldMode:       res.Prev.Mode,
				NewMode:       res.Next.Mode,
				OldMaxAddress: res.Prev.MaxAddress,
				NewMaxAddress: res.Next.MaxAddress,
			},
		})
	}

	for _, r := range res.Responses {
		if err := c.stream.WriteString(r + "\n"); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		c.log(log.Event{
			Direction: log.DirectionOut,
			Category:  log.CategoryResponse,
			Mode:      res.Next.Mode,
			Response:  &log.ResponseEvent{Text: r},
		})
	}

	if c.opts.Reprompt {
		if err := c.stream.WriteChar(Prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}
	}
	return nil
}

func (c *Console) log(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = c.opts.SessionID
	ev.Source = c.opts.Source
	c.logger.Log(ev)
}

func (c *Console) logSession(t log.SessionEventType, reason string) {
	c.log(log.Event{
		Category: log.CategorySession,
		Mode:     c.engine.State().Mode,
		Session:  &log.SessionEvent{Type: t, Reason: reason},
	})
}

func (c *Console) logError(err error, where string) {
	c.log(log.Event{
		Category: log.CategoryError,
		Mode:     c.engine.State().Mode,
		Error:    &log.ErrorEventData{Message: err.Error(), Context: where},
	})
}

// Serve runs a console on st with a fresh session and returns when the
// session ends.
func Serve(ctx context.Context, engine *Engine, st stream.Stream, opts Options) error {
	return New(engine, st, opts).Run(ctx)
}
