// Package commands implements the uartcmd-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/uartcmd/uartcmd-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION MODE Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [session:%s] %-3s %-10s %s\n",
		ts, shortenID(event.SessionID), event.Direction.String(), event.Mode.String(), eventType(event))

	switch {
	case event.Line != nil:
		fmt.Fprintf(w, "  Line: %q\n", event.Line.Text)
		if event.Line.Verb != "" {
			fmt.Fprintf(w, "  Verb: %s\n", event.Line.Verb)
		}
		if event.Line.Forced {
			fmt.Fprintln(w, "  Forced: buffer full")
		}
		if event.Line.Invalid {
			fmt.Fprintln(w, "  Invalid")
		}
	case event.Response != nil:
		fmt.Fprintf(w, "  Text: %q\n", event.Response.Text)
	case event.StateChange != nil:
		sc := event.StateChange
		fmt.Fprintf(w, "  Verb: %s\n", sc.Verb)
		if sc.OldMode != sc.NewMode {
			fmt.Fprintf(w, "  Mode: %s -> %s\n", sc.OldMode, sc.NewMode)
		}
		if sc.OldMaxAddress != sc.NewMaxAddress {
			fmt.Fprintf(w, "  MaxAddress: %d -> %d\n", sc.OldMaxAddress, sc.NewMaxAddress)
		}
	case event.Session != nil:
		if event.Source != "" {
			fmt.Fprintf(w, "  Source: %s\n", event.Source)
		}
		if event.Session.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", event.Session.Reason)
		}
	case event.Error != nil:
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w) // Blank line between events
}

// eventType returns the label of the event payload.
func eventType(event log.Event) string {
	switch {
	case event.Line != nil:
		return "Line"
	case event.Response != nil:
		return "Response"
	case event.StateChange != nil:
		return "State"
	case event.Session != nil:
		return "Session " + event.Session.Type.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatTranscript writes the event as it appeared on the console: input
// lines prefixed with "> " and responses as-is. Other events are skipped.
func formatTranscript(w io.Writer, event log.Event) {
	switch {
	case event.Line != nil:
		fmt.Fprintf(w, "> %s\n", event.Line.Text)
	case event.Response != nil:
		fmt.Fprintln(w, event.Response.Text)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	d, ok := log.ParseDirection(s)
	if !ok {
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
	return d, nil
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be line, response, state, session, or error)", strings.ToLower(s))
	}
	return c, nil
}

// ViewOptions configures the view command.
type ViewOptions struct {
	Filter log.Filter

	// Transcript prints only lines and responses, like a terminal.
	Transcript bool
}

// RunView executes the view command.
func RunView(path string, opts ViewOptions, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, opts.Filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if opts.Transcript {
			formatTranscript(output, event)
		} else {
			formatEvent(output, event)
		}
	}

	return nil
}
