// Package token splits command lines into argument tokens.
//
// A Tokenizer is an immutable view over one line plus a cursor. Next never
// modifies the line; it returns the token together with a new Tokenizer
// positioned after the consumed delimiter, so a line can be re-scanned from
// any earlier position and no state leaks from one line to the next.
package token

import "strings"

// Token is a span of the tokenized line.
type Token struct {
	// Text is the token content.
	Text string

	// Start and End are byte offsets of Text within the line.
	Start, End int
}

// Tokenizer walks a line from a cursor position.
type Tokenizer struct {
	line string
	pos  int
}

// New returns a tokenizer positioned at the start of line.
func New(line string) Tokenizer {
	return Tokenizer{line: line}
}

// Cursor returns the offset of the first unconsumed byte.
func (t Tokenizer) Cursor() int {
	return t.pos
}

// Remaining returns the unconsumed part of the line.
func (t Tokenizer) Remaining() string {
	return t.line[t.pos:]
}

// Done reports whether the whole line has been consumed.
func (t Tokenizer) Done() bool {
	return t.pos >= len(t.line)
}

// Next returns the next token ending at any byte of delims.
//
// Leading delimiter bytes are skipped. If no delimiter follows, the rest of
// the line is the token. ok is false when nothing but delimiters remains,
// in which case the returned tokenizer is at the end of the line.
func (t Tokenizer) Next(delims string) (tok Token, next Tokenizer, ok bool) {
	start := t.pos
	for start < len(t.line) && strings.IndexByte(delims, t.line[start]) >= 0 {
		start++
	}
	if start >= len(t.line) {
		return Token{}, Tokenizer{line: t.line, pos: len(t.line)}, false
	}

	end := len(t.line)
	after := end
	if i := strings.IndexAny(t.line[start:], delims); i >= 0 {
		end = start + i
		after = end + 1
	}

	tok = Token{Text: t.line[start:end], Start: start, End: end}
	return tok, Tokenizer{line: t.line, pos: after}, true
}

// Split tokenizes the whole line on delims.
func Split(line, delims string) []string {
	var out []string
	t := New(line)
	for {
		tok, next, ok := t.Next(delims)
		if !ok {
			return out
		}
		out = append(out, tok.Text)
		t = next
	}
}
