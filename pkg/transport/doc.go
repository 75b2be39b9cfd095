// Package transport serves the console over TCP.
//
// Every accepted connection becomes an independent console session with its
// own line buffer and a UUID session ID. All sessions dispatch through the
// same console.Engine, so a mode change made on one connection is seen by
// all others and by the UART.
//
// The wire format is the UART character stream itself: clients send
// newline-terminated lines and receive the banner and newline-terminated
// response lines. Any raw TCP client (nc, telnet) works; Client adds a
// line-exchange helper on top.
package transport
