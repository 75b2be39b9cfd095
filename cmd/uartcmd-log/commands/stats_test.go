package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/uartcmd/uartcmd-go/pkg/log"
)

func TestCollectStats(t *testing.T) {
	path := writeCaptureFile(t, sampleEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}

	if stats.TotalEvents != 7 {
		t.Errorf("TotalEvents = %d, want 7", stats.TotalEvents)
	}
	if stats.EventsByCategory[log.CategoryLine] != 2 {
		t.Errorf("lines = %d, want 2", stats.EventsByCategory[log.CategoryLine])
	}
	if stats.Verbs["controller"] != 1 {
		t.Errorf("verbs = %v", stats.Verbs)
	}
	if stats.InvalidLines != 1 || stats.ForcedLines != 0 {
		t.Errorf("invalid = %d, forced = %d", stats.InvalidLines, stats.ForcedLines)
	}
	if stats.StateChanges != 1 || stats.Errors != 1 {
		t.Errorf("state changes = %d, errors = %d", stats.StateChanges, stats.Errors)
	}
	if len(stats.Sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(stats.Sessions))
	}
	sess := stats.Sessions["abc12345-6789-0123-4567-890abcdef012"]
	if sess == nil || sess.Lines != 2 || sess.Source != "tcp:127.0.0.1:5000" {
		t.Errorf("session stats = %+v", sess)
	}
}

func TestRunStats(t *testing.T) {
	path := writeCaptureFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 7",
		"LINE:",
		"controller:",
		"Invalid lines: 1",
		"Sessions: 2",
		"[abc12345]",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
