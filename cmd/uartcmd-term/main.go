// Command uartcmd-term is a terminal for network consoles served by uartcmd.
//
// On a TTY it offers line editing and history. With piped input it sends
// every input line and prints the responses, which makes it usable from
// scripts.
//
// Usage:
//
//	uartcmd-term [flags]
//
// Flags:
//
//	-addr string      Console address (host:port)
//	-find string      Find a console via mDNS by instance name ("" = first)
//	-browse           Discover consoles via mDNS and use the first one
//	-timeout duration Discovery and connect timeout (default 5s)
//	-quiet duration   Response quiet period (default 200ms)
//
// Examples:
//
//	# Interactive session
//	uartcmd-term -addr 192.168.1.20:2323
//
//	# Scripted session against the first advertised console
//	printf 'controller\nmax 100\n' | uartcmd-term -browse
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/uartcmd/uartcmd-go/pkg/discovery"
	"github.com/uartcmd/uartcmd-go/pkg/transport"
)

var (
	addr     = flag.String("addr", "", "Console address (host:port)")
	find     = flag.String("find", "", "Find a console via mDNS by instance name")
	browse   = flag.Bool("browse", false, "Discover consoles via mDNS and use the first one")
	timeout  = flag.Duration("timeout", 5*time.Second, "Discovery and connect timeout")
	quiet    = flag.Duration("quiet", transport.DefaultQuietPeriod, "Response quiet period")
	histFile = flag.String("history", "", "History file (interactive mode)")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	target, err := resolveTarget()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	client := transport.NewClient(transport.ClientConfig{QuietPeriod: *quiet})
	conn, err := client.Connect(ctx, target)
	cancel()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer conn.Close()

	// Emacs shells are TTYs without raw mode support.
	interactive := term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if interactive {
		err = runInteractive(conn)
	} else {
		err = runPiped(conn, os.Stdin, os.Stdout)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// resolveTarget returns the console address from -addr or mDNS.
func resolveTarget() (string, error) {
	if *addr != "" {
		return *addr, nil
	}
	if *find == "" && !*browse {
		return "", errors.New("one of -addr, -find or -browse is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, err := discovery.NewBrowser(discovery.BrowserConfig{}).Find(ctx, *find)
	if err != nil {
		return "", fmt.Errorf("no console found: %w", err)
	}
	log.Printf("Found %s (%s, max %d) at %s", svc.InstanceName, svc.Info.Mode, svc.Info.MaxAddress, svc.Addr())
	return svc.Addr(), nil
}

// lineConn is the part of transport.ClientConn the terminal uses.
type lineConn interface {
	ReadResponse() ([]string, error)
	Exchange(line string) ([]string, error)
}

func runInteractive(conn lineConn) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     *histFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	banner, err := conn.ReadResponse()
	if err != nil {
		return err
	}
	printLines(rl.Stdout(), banner)

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		resp, err := conn.Exchange(strings.TrimRight(line, "\r\n"))
		printLines(rl.Stdout(), resp)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout(), "Connection closed")
				return nil
			}
			return err
		}
	}
}

// runPiped sends each input line and writes the responses to out. The
// banner is discarded.
func runPiped(conn lineConn, in io.Reader, out io.Writer) error {
	if _, err := conn.ReadResponse(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		resp, err := conn.Exchange(scanner.Text())
		printLines(out, resp)
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
