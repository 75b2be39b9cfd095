package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/command"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ConsoleState is the persisted form of command.State.
type ConsoleState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Mode is "controller" or "device".
	Mode string `json:"mode"`

	// MaxAddress is the configured maximum address.
	MaxAddress int `json:"max_address"`
}

// FromState converts a command state for saving.
func FromState(s command.State) *ConsoleState {
	return &ConsoleState{
		Mode:       s.Mode.String(),
		MaxAddress: s.MaxAddress,
	}
}

// State converts the persisted form back to a command state.
func (c *ConsoleState) State() (command.State, error) {
	mode, err := command.ParseMode(c.Mode)
	if err != nil {
		return command.State{}, err
	}
	if c.MaxAddress < 0 {
		return command.State{}, fmt.Errorf("negative max_address %d", c.MaxAddress)
	}
	return command.State{Mode: mode, MaxAddress: c.MaxAddress}, nil
}

// StateStore manages the state file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store for the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save writes the state, creating parent directories as needed. The file is
// replaced atomically.
func (s *StateStore) Save(state *ConsoleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state file.
// Returns nil, nil if the file doesn't exist.
func (s *StateStore) Load() (*ConsoleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ConsoleState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("state file version %d is newer than supported %d", state.Version, StateVersion)
	}
	return state, nil
}

// LoadState returns the stored command state, or def when nothing is stored.
func (s *StateStore) LoadState(def command.State) (command.State, error) {
	cs, err := s.Load()
	if err != nil {
		return def, err
	}
	if cs == nil {
		return def, nil
	}
	return cs.State()
}

// SaveState stores a command state.
func (s *StateStore) SaveState(state command.State) error {
	return s.Save(FromState(state))
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
