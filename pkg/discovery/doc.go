// Package discovery announces network consoles over mDNS/DNS-SD and finds
// them again.
//
// A console is advertised as a _uartcmd._tcp service in the local. domain.
// The instance name defaults to the host name. TXT records carry the
// current console state and are refreshed whenever it changes:
//
//	mode=controller|device
//	max=<max address>
//	ver=<TXT format version>
package discovery
