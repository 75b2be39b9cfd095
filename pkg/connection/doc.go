// Package connection keeps a console stream alive.
//
// A Supervisor opens a stream (typically a UART), serves it until it fails
// and then reopens it with exponential backoff. A USB serial adapter that is
// unplugged and plugged back in therefore resumes serving without a restart.
//
// # Reopen Strategy
//
//  1. Initial delay: 500 milliseconds
//  2. Doubling on every failed attempt
//  3. Maximum delay: 30 seconds
//  4. Reset to the initial delay once a stream was opened
//
// Each delay gets up to 25% random jitter.
package connection
