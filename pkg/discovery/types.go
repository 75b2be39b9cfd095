package discovery

import (
	"errors"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of a network console.
	ServiceType = "_uartcmd._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is used when a service is advertised without a port.
	DefaultPort = 2323

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyMode       = "mode"
	TXTKeyMaxAddress = "max"
	TXTKeyVersion    = "ver"
)

// Errors.
var (
	ErrNotAdvertising      = errors.New("not advertising")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrMissingTXT          = errors.New("missing TXT record")
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Instance is the service instance name. Empty uses the host name.
	Instance string

	// Port is the TCP port of the console.
	Port int

	// Interface restricts the advertisement to one network interface.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Port: DefaultPort,
		TTL:  120 * time.Second,
	}
}

// ConsoleService is a console found on the network.
type ConsoleService struct {
	InstanceName string
	Host         string
	Port         int
	Addresses    []string
	Info         ConsoleInfo
}
