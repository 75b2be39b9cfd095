package console

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/uartcmd/uartcmd-go/pkg/command"
)

// Engine errors.
var (
	ErrEngineStopped = errors.New("engine stopped")
	ErrEngineRunning = errors.New("engine already running")
)

// ChangeHandler is called after a command changed the state. It runs on the
// engine goroutine; the next line is not dispatched until it returns.
type ChangeHandler func(res command.Result)

type request struct {
	line  string
	reply chan command.Result
}

// Engine serializes command dispatch for all sessions.
type Engine struct {
	dispatcher *command.Dispatcher
	requests   chan request
	done       chan struct{}
	running    atomic.Bool

	// Last published state, readable from any goroutine.
	state atomic.Pointer[command.State]

	mu       sync.Mutex
	handlers []ChangeHandler
}

// NewEngine creates an engine starting in the given state.
func NewEngine(initial command.State) *Engine {
	e := &Engine{
		dispatcher: command.NewDispatcher(initial),
		requests:   make(chan request),
		done:       make(chan struct{}),
	}
	s := e.dispatcher.State()
	e.state.Store(&s)
	return e
}

// OnChange registers a handler for state changes.
func (e *Engine) OnChange(h ChangeHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// State returns the state after the most recently dispatched line.
func (e *Engine) State() command.State {
	return *e.state.Load()
}

// Run dispatches submitted lines until ctx is cancelled. An engine can be
// run only once.
func (e *Engine) Run(ctx context.Context) error {
	if e.running.Swap(true) {
		return ErrEngineRunning
	}
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-e.requests:
			req.reply <- e.dispatch(req.line)
		}
	}
}

func (e *Engine) dispatch(line string) command.Result {
	// Responses are collected in the result; sessions write them.
	res, _ := e.dispatcher.Dispatch(line, nil)

	next := res.Next
	e.state.Store(&next)

	if res.Changed() {
		e.mu.Lock()
		handlers := make([]ChangeHandler, len(e.handlers))
		copy(handlers, e.handlers)
		e.mu.Unlock()

		for _, h := range handlers {
			h(res)
		}
	}
	return res
}

// Dispatch submits one line and waits for its result.
func (e *Engine) Dispatch(ctx context.Context, line string) (command.Result, error) {
	req := request{line: line, reply: make(chan command.Result, 1)}

	select {
	case e.requests <- req:
	case <-ctx.Done():
		return command.Result{}, ctx.Err()
	case <-e.done:
		return command.Result{}, ErrEngineStopped
	}

	// Once accepted the request is always answered.
	return <-req.reply, nil
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}
