package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/uartcmd/uartcmd-go/pkg/log"
)

func TestFormatLineEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1])
	output := buf.String()

	for _, want := range []string{
		"2026-10-01T12:00:01.000000Z",
		"[session:abc12345]",
		"IN",
		"device",
		"Line",
		`Line: "controller"`,
		"Verb: controller",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2])
	output := buf.String()

	if !strings.Contains(output, "Mode: device -> controller") {
		t.Errorf("expected mode transition, got: %s", output)
	}
	if strings.Contains(output, "MaxAddress:") {
		t.Errorf("unchanged max address should not be shown, got: %s", output)
	}
}

func TestFormatSessionAndErrorEvents(t *testing.T) {
	events := sampleEvents()

	var buf bytes.Buffer
	formatEvent(&buf, events[0])
	if !strings.Contains(buf.String(), "Session OPENED") || !strings.Contains(buf.String(), "Source: tcp:127.0.0.1:5000") {
		t.Errorf("unexpected session output: %s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, events[6])
	if !strings.Contains(buf.String(), "Error: write: broken pipe") {
		t.Errorf("unexpected error output: %s", buf.String())
	}
}

func TestRunViewTranscript(t *testing.T) {
	path := writeCaptureFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewOptions{Transcript: true}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}

	want := "> controller\nController Mode\n> bogus\nInvalid Controller Mode Command\n"
	if buf.String() != want {
		t.Errorf("transcript = %q, want %q", buf.String(), want)
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeCaptureFile(t, sampleEvents())

	cat := log.CategoryResponse
	var buf bytes.Buffer
	if err := RunView(path, ViewOptions{Filter: log.Filter{Category: &cat}}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}

	if n := strings.Count(buf.String(), "Response"); n != 2 {
		t.Errorf("expected 2 response events, got %d: %s", n, buf.String())
	}
	if strings.Contains(buf.String(), "Line:") {
		t.Errorf("line events should be filtered out: %s", buf.String())
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView("/nonexistent/capture.cbor", ViewOptions{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if d, err := ParseDirectionFlag("Out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(Out) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	if c, err := ParseCategoryFlag("state"); err != nil || c != log.CategoryState {
		t.Errorf("ParseCategoryFlag(state) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("frame"); err == nil {
		t.Error("expected error for invalid category")
	}
}
