// Command uartcmd serves the line-command console on a UART, on standard
// I/O and over TCP.
//
// All consoles share one command state (mode and max address). The state
// can be persisted across restarts and the TCP console can be announced
// over mDNS.
//
// Usage:
//
//	uartcmd [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-serial string        Serial device to serve (e.g. /dev/ttyACM0)
//	-baud int             Serial baud rate (default 115200)
//	-stdio                Serve a console on stdin/stdout
//	-listen string        TCP listen address (e.g. :2323)
//	-mdns                 Advertise the TCP console via mDNS
//	-state string         State file for mode and max address
//	-protocol-log string  CBOR capture file for console traffic
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-reprompt             Write the prompt after every response
//	-list-ports           List serial ports and exit
//	-version              Print the protocol version and exit
//
// Examples:
//
//	# Serve the console on a USB serial adapter
//	uartcmd -serial /dev/ttyUSB0 -stdio=false
//
//	# Serve over TCP, advertise it and keep state across restarts
//	uartcmd -stdio=false -listen :2323 -mdns -state /var/lib/uartcmd/state.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/uartcmd/uartcmd-go/pkg/command"
	"github.com/uartcmd/uartcmd-go/pkg/config"
	"github.com/uartcmd/uartcmd-go/pkg/connection"
	"github.com/uartcmd/uartcmd-go/pkg/console"
	"github.com/uartcmd/uartcmd-go/pkg/discovery"
	protolog "github.com/uartcmd/uartcmd-go/pkg/log"
	"github.com/uartcmd/uartcmd-go/pkg/persistence"
	"github.com/uartcmd/uartcmd-go/pkg/stream"
	"github.com/uartcmd/uartcmd-go/pkg/transport"
	"github.com/uartcmd/uartcmd-go/pkg/version"
)

// Flags holds the command-line settings. Only flags that were set
// explicitly override the configuration file.
type Flags struct {
	ConfigFile  string
	Serial      string
	Baud        int
	Stdio       bool
	Listen      string
	MDNS        bool
	StateFile   string
	ProtocolLog string
	LogLevel    string
	Reprompt    bool
	ListPorts   bool
	Version     bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.Serial, "serial", "", "Serial device to serve (e.g. /dev/ttyACM0)")
	flag.IntVar(&flags.Baud, "baud", stream.DefaultBaudRate, "Serial baud rate")
	flag.BoolVar(&flags.Stdio, "stdio", true, "Serve a console on stdin/stdout")
	flag.StringVar(&flags.Listen, "listen", "", "TCP listen address (e.g. :2323)")
	flag.BoolVar(&flags.MDNS, "mdns", false, "Advertise the TCP console via mDNS")
	flag.StringVar(&flags.StateFile, "state", "", "State file for mode and max address")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "CBOR capture file for console traffic")
	flag.StringVar(&flags.LogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Reprompt, "reprompt", false, "Write the prompt after every response")
	flag.BoolVar(&flags.ListPorts, "list-ports", false, "List serial ports and exit")
	flag.BoolVar(&flags.Version, "version", false, "Print the protocol version and exit")
}

func main() {
	flag.Parse()

	if flags.Version {
		fmt.Printf("uartcmd protocol %s\n", version.Current)
		return
	}

	setupLogging(flags.LogLevel)

	if flags.ListPorts {
		listPorts()
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(flags, set)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Console output goes to stdout, so logs go to stderr.
	log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("Goodbye!")
}

// loadConfig reads the config file, if any, and applies explicitly set
// flags on top.
func loadConfig(f Flags, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(f.ConfigFile); err != nil {
			return nil, err
		}
	}

	if set["serial"] {
		cfg.Serial.Path = f.Serial
	}
	if set["baud"] {
		cfg.Serial.BaudRate = f.Baud
	}
	if set["stdio"] {
		cfg.Stdio = f.Stdio
	}
	if set["listen"] {
		cfg.Listen = f.Listen
	}
	if set["mdns"] {
		cfg.MDNS.Enabled = f.MDNS
	}
	if set["state"] {
		cfg.StateFile = f.StateFile
	}
	if set["protocol-log"] {
		cfg.ProtocolLog = f.ProtocolLog
	}
	if set["log-level"] {
		cfg.LogLevel = f.LogLevel
	}
	if set["reprompt"] {
		cfg.Reprompt = f.Reprompt
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	logger, closeLogger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	initial := cfg.InitialState()
	var store *persistence.StateStore
	if cfg.StateFile != "" {
		store = persistence.NewStateStore(cfg.StateFile)
		if initial, err = store.LoadState(initial); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		log.Printf("State file: %s", store.Path())
	}
	log.Printf("Initial state: mode=%s max=%d", initial.Mode, initial.MaxAddress)

	engine := console.NewEngine(initial)
	if store != nil {
		engine.OnChange(func(res command.Result) {
			if err := store.SaveState(res.Next); err != nil {
				log.Printf("Warning: failed to save state: %v", err)
			}
		})
	}
	engine.OnChange(func(res command.Result) {
		log.Printf("State changed by %q: mode=%s max=%d", res.Verb, res.Next.Mode, res.Next.MaxAddress)
	})

	go engine.Run(ctx)

	var sessions sync.WaitGroup
	startSession := func(st stream.Stream, source string) {
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			err := console.Serve(ctx, engine, st, console.Options{
				Source:   source,
				Logger:   logger,
				Reprompt: cfg.Reprompt,
			})
			if err != nil {
				log.Printf("Console %s ended: %v", source, err)
			} else {
				log.Printf("Console %s closed", source)
			}
		}()
	}

	if cfg.Serial.Path != "" {
		if cfg.Serial.Reconnect {
			sessions.Add(1)
			go func() {
				defer sessions.Done()
				superviseSerial(ctx, cfg, engine, logger)
			}()
		} else {
			port, err := stream.OpenSerial(cfg.SerialStream())
			if err != nil {
				return err
			}
			log.Printf("Serial console: %s at %d baud", port.Path(), cfg.Serial.BaudRate)
			startSession(port, "serial:"+port.Path())
		}
	}

	if cfg.Stdio {
		startSession(stream.NewConnStream(stdio{}), "stdio")
	}

	var server *transport.Server
	if cfg.Listen != "" {
		server, err = transport.NewServer(transport.ServerConfig{
			Address:        cfg.Listen,
			MaxConnections: cfg.MaxConnections,
			Engine:         engine,
			Logger:         logger,
			Reprompt:       cfg.Reprompt,
			OnConnect: func(c *transport.ServerConn) {
				log.Printf("Client connected: %s (session %s)", c.RemoteAddr(), c.ConnID())
			},
			OnDisconnect: func(c *transport.ServerConn, err error) {
				log.Printf("Client disconnected: %s", c.RemoteAddr())
			},
			OnError: func(err error) {
				log.Printf("Server: %v", err)
			},
		})
		if err != nil {
			return err
		}
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer server.Stop()
		log.Printf("TCP console listening on %s", server.Addr())

		if cfg.MDNS.Enabled {
			adv, err := startAdvertiser(cfg, server, engine)
			if err != nil {
				log.Printf("Warning: mDNS advertisement failed: %v", err)
			} else {
				defer adv.Stop()
			}
		}
	}

	// Without a TCP server the daemon ends with its last console.
	if server == nil {
		go func() {
			sessions.Wait()
			cancel()
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	cancel()
	sessions.Wait()
	return nil
}

func startAdvertiser(cfg *config.Config, server *transport.Server, engine *console.Engine) (*discovery.Advertiser, error) {
	port := cfg.ListenPort()
	if port == 0 {
		port = server.Addr().(*net.TCPAddr).Port
	}

	adv, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
		Instance:  cfg.MDNS.Instance,
		Port:      port,
		Interface: cfg.MDNS.Interface,
		TTL:       cfg.MDNS.TTL,
	})
	if err != nil {
		return nil, err
	}
	if err := adv.Start(discovery.InfoFromState(engine.State())); err != nil {
		return nil, err
	}
	engine.OnChange(func(res command.Result) {
		if err := adv.Update(discovery.InfoFromState(res.Next)); err != nil {
			log.Printf("Warning: mDNS update failed: %v", err)
		}
	})
	log.Printf("Advertising %s.%s%s on port %d", adv.Instance(), discovery.ServiceType, discovery.Domain, port)
	return adv, nil
}

// superviseSerial serves the UART and reopens it with backoff whenever the
// port fails, until ctx ends.
func superviseSerial(ctx context.Context, cfg *config.Config, engine *console.Engine, logger protolog.Logger) {
	sc := cfg.SerialStream()
	source := "serial:" + sc.Path

	sup := connection.NewSupervisor(connection.Config{
		Open: func(context.Context) (stream.Stream, error) {
			return stream.OpenSerial(sc)
		},
		Serve: func(ctx context.Context, st stream.Stream) error {
			log.Printf("Serial console: %s at %d baud", sc.Path, sc.BaudRate)
			return console.Serve(ctx, engine, st, console.Options{
				Source:   source,
				Logger:   logger,
				Reprompt: cfg.Reprompt,
			})
		},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			if err == nil {
				err = errors.New("port closed")
			}
			log.Printf("Serial %s: %v (retry %d in %s)", sc.Path, err, attempt, delay.Round(time.Millisecond))
		},
	})

	if err := sup.Run(ctx); err != nil {
		log.Printf("Serial %s: %v", sc.Path, err)
	}
}

// buildLogger assembles the capture logger: slog at debug level plus the
// optional capture file.
func buildLogger(cfg *config.Config) (protolog.Logger, func(), error) {
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	loggers := []protolog.Logger{protolog.NewSlogAdapter(slog.New(handler))}

	closeFn := func() {}
	if cfg.ProtocolLog != "" {
		fl, err := protolog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open protocol log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() { fl.Close() }
		log.Printf("Protocol log: %s", cfg.ProtocolLog)
	}

	return protolog.NewMultiLogger(loggers...), closeFn, nil
}

// stdio joins stdin and stdout. Closing it closes stdin, which unblocks a
// pending read.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return os.Stdin.Close() }

func listPorts() {
	ports, err := stream.ListSerialPorts()
	if err != nil {
		log.Fatalf("Failed to list serial ports: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}
