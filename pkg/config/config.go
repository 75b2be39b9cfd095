// Package config loads the daemon configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uartcmd/uartcmd-go/pkg/command"
	"github.com/uartcmd/uartcmd-go/pkg/stream"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults.
const (
	DefaultMaxConnections = 8
	DefaultLogLevel       = "info"
	DefaultMDNSTTL        = 120 * time.Second
)

// Config is the daemon configuration.
type Config struct {
	// Serial is the UART to serve. Disabled when Path is empty.
	Serial SerialConfig `yaml:"serial"`

	// Stdio serves a console on standard input and output.
	Stdio bool `yaml:"stdio"`

	// Listen is the TCP address of the network console (e.g. ":2323").
	// Disabled when empty.
	Listen string `yaml:"listen"`

	// MaxConnections limits concurrent TCP sessions.
	MaxConnections int `yaml:"max_connections"`

	// MDNS advertises the network console.
	MDNS MDNSConfig `yaml:"mdns"`

	// StateFile persists mode and max address across restarts (optional).
	StateFile string `yaml:"state_file"`

	// ProtocolLog is the CBOR capture file (optional).
	ProtocolLog string `yaml:"protocol_log"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// InitialMode is the mode used when no state file exists.
	InitialMode string `yaml:"initial_mode"`

	// MaxAddress is the max address used when no state file exists.
	MaxAddress int `yaml:"max_address"`

	// Reprompt writes the prompt after every response.
	Reprompt bool `yaml:"reprompt"`
}

// SerialConfig is the YAML form of stream.SerialConfig.
type SerialConfig struct {
	Path        string        `yaml:"path"`
	BaudRate    int           `yaml:"baud_rate"`
	DataBits    int           `yaml:"data_bits"`
	Parity      string        `yaml:"parity"`
	StopBits    int           `yaml:"stop_bits"`
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Reconnect reopens the port with backoff after it fails or vanishes.
	Reconnect bool `yaml:"reconnect"`
}

// MDNSConfig configures the DNS-SD advertisement.
type MDNSConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Instance  string        `yaml:"instance"`
	Interface string        `yaml:"interface"`
	TTL       time.Duration `yaml:"ttl"`
}

// Default returns the built-in configuration: stdio console, device mode,
// max address 512.
func Default() *Config {
	s := stream.DefaultSerialConfig("")
	return &Config{
		Serial: SerialConfig{
			BaudRate:    s.BaudRate,
			DataBits:    s.DataBits,
			Parity:      s.Parity,
			StopBits:    s.StopBits,
			ReadTimeout: s.ReadTimeout,
			Reconnect:   true,
		},
		Stdio:          true,
		MaxConnections: DefaultMaxConnections,
		MDNS: MDNSConfig{
			TTL: DefaultMDNSTTL,
		},
		LogLevel:    DefaultLogLevel,
		InitialMode: command.ModeDevice.String(),
		MaxAddress:  command.DefaultMaxAddress,
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Serial.Path == "" && !c.Stdio && c.Listen == "" {
		return invalid("no console enabled: set serial.path, stdio or listen")
	}

	if c.Serial.Path != "" {
		if _, err := c.SerialStream().Mode(); err != nil {
			return invalid("serial: %v", err)
		}
		if c.Serial.ReadTimeout < 0 {
			return invalid("serial.read_timeout must not be negative")
		}
	}

	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return invalid("listen: %v", err)
		}
	}
	if c.MaxConnections < 1 {
		return invalid("max_connections must be at least 1")
	}

	if c.MDNS.Enabled {
		if c.Listen == "" {
			return invalid("mdns requires listen")
		}
		if c.MDNS.TTL < time.Second {
			return invalid("mdns.ttl must be at least 1s")
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return invalid("%v", err)
	}
	if _, err := command.ParseMode(c.InitialMode); err != nil {
		return invalid("initial_mode: %v", err)
	}
	if c.MaxAddress < 0 {
		return invalid("max_address must not be negative")
	}
	return nil
}

// SerialStream returns the serial settings for stream.OpenSerial.
func (c *Config) SerialStream() stream.SerialConfig {
	return stream.SerialConfig{
		Path:        c.Serial.Path,
		BaudRate:    c.Serial.BaudRate,
		DataBits:    c.Serial.DataBits,
		Parity:      c.Serial.Parity,
		StopBits:    c.Serial.StopBits,
		ReadTimeout: c.Serial.ReadTimeout,
	}
}

// InitialState returns the command state used when nothing is persisted.
// The config must be valid.
func (c *Config) InitialState() command.State {
	mode, _ := command.ParseMode(c.InitialMode)
	return command.State{Mode: mode, MaxAddress: c.MaxAddress}
}

// ListenPort returns the numeric port of Listen, or 0.
func (c *Config) ListenPort() int {
	_, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		return 0
	}
	p, err := net.LookupPort("tcp", port)
	if err != nil {
		return 0
	}
	return p
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
