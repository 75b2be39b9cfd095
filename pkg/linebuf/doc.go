// Package linebuf accumulates characters arriving one at a time into
// command lines.
//
// An Accumulator holds at most Capacity characters. A line completes when a
// newline arrives or when a character arrives while the buffer already holds
// more than Threshold characters. In the second case the buffered text is
// returned as a forced line and the triggering character is dropped; there
// is no error path for overlong input.
//
// Only printable ASCII is buffered. Carriage returns, other control bytes
// and bytes outside 7-bit ASCII are ignored, so CRLF line endings behave
// like LF.
package linebuf
