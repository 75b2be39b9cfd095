package discovery

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// textSetter is the part of *zeroconf.Server used after registration.
type textSetter interface {
	SetText(text []string)
	Shutdown()
}

// registerFunc registers a service; replaced in tests.
type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (textSetter, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (textSetter, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces, opts...)
}

// Advertiser announces one console on mDNS.
type Advertiser struct {
	config   AdvertiserConfig
	register registerFunc

	mu     sync.Mutex
	server textSetter
	info   ConsoleInfo
}

// NewAdvertiser creates an advertiser. Nothing is announced until Start.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("instance name: %w", err)
		}
		config.Instance = host
	}
	if len(config.Instance) > MaxInstanceNameLen {
		config.Instance = config.Instance[:MaxInstanceNameLen]
	}
	if err := ValidateInstanceName(config.Instance); err != nil {
		return nil, err
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	return &Advertiser{config: config, register: zeroconfRegister}, nil
}

// Instance returns the advertised instance name.
func (a *Advertiser) Instance() string {
	return a.config.Instance
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Start registers the service with the given state. A running
// advertisement is replaced.
func (a *Advertiser) Start(info ConsoleInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := a.register(
		a.config.Instance,
		ServiceType,
		Domain,
		a.config.Port,
		TXTRecordsToStrings(EncodeTXT(info)),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register console service: %w", err)
	}

	a.server = server
	a.info = info
	return nil
}

// Update replaces the TXT records of the running advertisement.
func (a *Advertiser) Update(info ConsoleInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	if info == a.info {
		return nil
	}
	a.server.SetText(TXTRecordsToStrings(EncodeTXT(info)))
	a.info = info
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
