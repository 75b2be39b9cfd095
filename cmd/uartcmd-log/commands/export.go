package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/log"
)

// jsonEvent is the export form of an event with readable enum names.
type jsonEvent struct {
	Timestamp   time.Time           `json:"timestamp"`
	SessionID   string              `json:"session_id"`
	Direction   string              `json:"direction"`
	Category    string              `json:"category"`
	Source      string              `json:"source,omitempty"`
	Mode        string              `json:"mode"`
	Line        *log.LineEvent      `json:"line,omitempty"`
	Response    *log.ResponseEvent  `json:"response,omitempty"`
	StateChange *jsonStateChange    `json:"state_change,omitempty"`
	Session     *jsonSession        `json:"session,omitempty"`
	Error       *log.ErrorEventData `json:"error,omitempty"`
}

type jsonStateChange struct {
	Verb          string `json:"verb"`
	OldMode       string `json:"old_mode"`
	NewMode       string `json:"new_mode"`
	OldMaxAddress int    `json:"old_max_address"`
	NewMaxAddress int    `json:"new_max_address"`
}

type jsonSession struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

func toJSONEvent(e log.Event) jsonEvent {
	out := jsonEvent{
		Timestamp: e.Timestamp.UTC(),
		SessionID: e.SessionID,
		Direction: e.Direction.String(),
		Category:  e.Category.String(),
		Source:    e.Source,
		Mode:      e.Mode.String(),
		Line:      e.Line,
		Response:  e.Response,
		Error:     e.Error,
	}
	if sc := e.StateChange; sc != nil {
		out.StateChange = &jsonStateChange{
			Verb:          sc.Verb,
			OldMode:       sc.OldMode.String(),
			NewMode:       sc.NewMode.String(),
			OldMaxAddress: sc.OldMaxAddress,
			NewMaxAddress: sc.NewMaxAddress,
		}
	}
	if s := e.Session; s != nil {
		out.Session = &jsonSession{Type: s.Type.String(), Reason: s.Reason}
	}
	return out
}

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "direction", "category", "source", "mode", "type", "text"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Direction.String(),
			event.Category.String(),
			event.Source,
			event.Mode.String(),
			eventType(event),
			eventText(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// eventText returns the main text of an event for tabular output.
func eventText(e log.Event) string {
	switch {
	case e.Line != nil:
		return e.Line.Text
	case e.Response != nil:
		return e.Response.Text
	case e.StateChange != nil:
		return e.StateChange.NewMode.String() + " max=" + strconv.Itoa(e.StateChange.NewMaxAddress)
	case e.Session != nil:
		return e.Session.Reason
	case e.Error != nil:
		return e.Error.Message
	}
	return ""
}
