package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
		slog.String("mode", event.Mode.String()),
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}

	switch {
	case event.Line != nil:
		attrs = append(attrs, slog.String("line", event.Line.Text))
		if event.Line.Verb != "" {
			attrs = append(attrs, slog.String("verb", event.Line.Verb))
		}
		if event.Line.Forced {
			attrs = append(attrs, slog.Bool("forced", true))
		}
		if event.Line.Invalid {
			attrs = append(attrs, slog.Bool("invalid", true))
		}
	case event.Response != nil:
		attrs = append(attrs, slog.String("response", event.Response.Text))
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("verb", event.StateChange.Verb),
			slog.String("old_mode", event.StateChange.OldMode.String()),
			slog.String("new_mode", event.StateChange.NewMode.String()),
			slog.Int("old_max_address", event.StateChange.OldMaxAddress),
			slog.Int("new_max_address", event.StateChange.NewMaxAddress),
		)
	case event.Session != nil:
		attrs = append(attrs, slog.String("session_event", event.Session.Type.String()))
		if event.Session.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Session.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "console", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
