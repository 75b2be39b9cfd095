// Package log captures console traffic as structured events.
//
// Every received command line, every response line, every change of the
// console state and every session open/close can be recorded as an Event.
// Capture is separate from operational logging (log, slog): it is a
// complete machine-readable transcript for debugging and auditing.
//
// # Basic Usage
//
//	// Console output via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	logger, _ := log.NewFileLogger("/var/log/uartcmd/console.clog")
//
//	// Both
//	logger := log.NewMultiLogger(slogAdapter, fileLogger)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys
// (.clog extension). Reader streams them back, optionally filtered; the
// uartcmd-log tool views, exports and summarizes them.
package log
