package command

import (
	"fmt"
	"strings"
)

// Mode selects the active command grammar.
type Mode uint8

const (
	// ModeController accepts the controller grammar.
	ModeController Mode = 0
	// ModeDevice accepts the device grammar. It is the initial mode.
	ModeDevice Mode = 1
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeController:
		return "controller"
	case ModeDevice:
		return "device"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m == ModeController || m == ModeDevice
}

// ParseMode parses a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "controller":
		return ModeController, nil
	case "device":
		return ModeDevice, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q", s)
	}
}

// DefaultMaxAddress is the maximum address after reset.
const DefaultMaxAddress = 512

// State is the console configuration mutated by commands.
type State struct {
	// Mode is the current operating mode.
	Mode Mode

	// MaxAddress is the upper bound of the addressable range. Never negative.
	MaxAddress int
}

// DefaultState returns the power-on state: device mode, max address 512.
func DefaultState() State {
	return State{
		Mode:       ModeDevice,
		MaxAddress: DefaultMaxAddress,
	}
}
