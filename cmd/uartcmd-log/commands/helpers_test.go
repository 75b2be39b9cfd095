package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/command"
	"github.com/uartcmd/uartcmd-go/pkg/log"
)

var baseTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// sampleEvents is a short session: "controller" then a bad line.
func sampleEvents() []log.Event {
	const sess = "abc12345-6789-0123-4567-890abcdef012"
	return []log.Event{
		{
			Timestamp: baseTime,
			SessionID: sess,
			Category:  log.CategorySession,
			Source:    "tcp:127.0.0.1:5000",
			Mode:      command.ModeDevice,
			Session:   &log.SessionEvent{Type: log.SessionOpened},
		},
		{
			Timestamp: baseTime.Add(time.Second),
			SessionID: sess,
			Direction: log.DirectionIn,
			Category:  log.CategoryLine,
			Mode:      command.ModeDevice,
			Line:      &log.LineEvent{Text: "controller", Verb: command.VerbController},
		},
		{
			Timestamp: baseTime.Add(time.Second),
			SessionID: sess,
			Direction: log.DirectionIn,
			Category:  log.CategoryState,
			Mode:      command.ModeController,
			StateChange: &log.StateChangeEvent{
				Verb:          command.VerbController,
				OldMode:       command.ModeDevice,
				NewMode:       command.ModeController,
				OldMaxAddress: 512,
				NewMaxAddress: 512,
			},
		},
		{
			Timestamp: baseTime.Add(time.Second),
			SessionID: sess,
			Direction: log.DirectionOut,
			Category:  log.CategoryResponse,
			Mode:      command.ModeController,
			Response:  &log.ResponseEvent{Text: command.RespControllerMode},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			SessionID: sess,
			Direction: log.DirectionIn,
			Category:  log.CategoryLine,
			Mode:      command.ModeController,
			Line:      &log.LineEvent{Text: "bogus", Invalid: true},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			SessionID: sess,
			Direction: log.DirectionOut,
			Category:  log.CategoryResponse,
			Mode:      command.ModeController,
			Response:  &log.ResponseEvent{Text: command.RespInvalidController},
		},
		{
			Timestamp: baseTime.Add(3 * time.Second),
			SessionID: "other-session",
			Category:  log.CategoryError,
			Mode:      command.ModeController,
			Error:     &log.ErrorEventData{Message: "write: broken pipe", Context: "session"},
		},
	}
}

// writeCaptureFile writes events to a new capture file and returns its path.
func writeCaptureFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}
