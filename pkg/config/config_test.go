package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uartcmd/uartcmd-go/pkg/command"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, command.DefaultState(), cfg.InitialState())
	assert.True(t, cfg.Stdio)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.True(t, cfg.Serial.Reconnect)
}

func TestParse(t *testing.T) {
	data := []byte(`
serial:
  path: /dev/ttyACM0
  baud_rate: 9600
  read_timeout: 250ms
stdio: false
listen: ":2323"
max_connections: 2
mdns:
  enabled: true
  instance: bench-uart
  ttl: 60s
state_file: /var/lib/uartcmd/state.json
protocol_log: /var/log/uartcmd.cbor
log_level: debug
initial_mode: controller
max_address: 1024
reprompt: true
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Path)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 8, cfg.Serial.DataBits, "unset fields keep defaults")
	assert.Equal(t, "N", cfg.Serial.Parity)
	assert.Equal(t, 250*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.False(t, cfg.Stdio)
	assert.Equal(t, ":2323", cfg.Listen)
	assert.Equal(t, 2323, cfg.ListenPort())
	assert.Equal(t, 2, cfg.MaxConnections)
	assert.True(t, cfg.MDNS.Enabled)
	assert.Equal(t, "bench-uart", cfg.MDNS.Instance)
	assert.Equal(t, 60*time.Second, cfg.MDNS.TTL)
	assert.True(t, cfg.Reprompt)
	assert.Equal(t, command.State{Mode: command.ModeController, MaxAddress: 1024}, cfg.InitialState())

	sc := cfg.SerialStream()
	assert.Equal(t, "/dev/ttyACM0", sc.Path)
	assert.Equal(t, 9600, sc.BaudRate)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("baud: 9600\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no console", func(c *Config) { c.Stdio = false }},
		{"bad parity", func(c *Config) { c.Serial.Path = "/dev/ttyS0"; c.Serial.Parity = "X" }},
		{"bad data bits", func(c *Config) { c.Serial.Path = "/dev/ttyS0"; c.Serial.DataBits = 9 }},
		{"negative read timeout", func(c *Config) { c.Serial.Path = "/dev/ttyS0"; c.Serial.ReadTimeout = -time.Second }},
		{"bad listen", func(c *Config) { c.Listen = "2323" }},
		{"zero connections", func(c *Config) { c.MaxConnections = 0 }},
		{"mdns without listen", func(c *Config) { c.MDNS.Enabled = true }},
		{"mdns short ttl", func(c *Config) { c.Listen = ":2323"; c.MDNS.Enabled = true; c.MDNS.TTL = time.Millisecond }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad mode", func(c *Config) { c.InitialMode = "host" }},
		{"negative max address", func(c *Config) { c.MaxAddress = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uartcmd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \"127.0.0.1:0\"\nstdio: false\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Listen)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("max_address: -5\n"), 0644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), bad)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("trace")
	assert.Error(t, err)
}
