// Package editor provides the text buffer the UI edits and scripts read.
package editor

import (
	"fmt"
	"os"
	"strings"
)

// Buffer is a line-oriented text buffer with a single cursor. It is
// mutated only from the event-loop goroutine.
type Buffer struct {
	lines    []string
	path     string
	modified bool

	// Cursor position: line and column are zero-based; col is a byte
	// offset within the line.
	line int
	col  int
}

// New creates an empty buffer with one empty line.
func New() *Buffer {
	return &Buffer{lines: []string{""}}
}

// Load reads path into a fresh buffer. A missing file yields an empty
// buffer bound to that path, so ":w" later creates it.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			b := New()
			b.path = path
			return b, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	// A trailing newline produces one phantom empty element; drop it but
	// keep at least one line.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &Buffer{lines: lines, path: path}, nil
}

// Save writes the buffer back to its path.
func (b *Buffer) Save() error {
	if b.path == "" {
		return fmt.Errorf("buffer has no filename")
	}
	data := strings.Join(b.lines, "\n") + "\n"
	if err := os.WriteFile(b.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", b.path, err)
	}
	b.modified = false
	return nil
}

// Filename returns the bound path, empty for a scratch buffer.
func (b *Buffer) Filename() string { return b.path }

// Modified reports unsaved changes.
func (b *Buffer) Modified() bool { return b.modified }

// Cursor returns the zero-based cursor position.
func (b *Buffer) Cursor() (line, col int) { return b.line, b.col }

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the 1-based nth line, matching the script API convention.
func (b *Buffer) Line(n int) (string, bool) {
	if n < 1 || n > len(b.lines) {
		return "", false
	}
	return b.lines[n-1], true
}

// InsertText inserts text at the cursor. Newlines in text split lines.
func (b *Buffer) InsertText(text string) {
	if text == "" {
		return
	}
	parts := strings.Split(text, "\n")
	cur := b.lines[b.line]
	head, tail := cur[:b.col], cur[b.col:]

	if len(parts) == 1 {
		b.lines[b.line] = head + parts[0] + tail
		b.col += len(parts[0])
	} else {
		rebuilt := make([]string, 0, len(b.lines)+len(parts)-1)
		rebuilt = append(rebuilt, b.lines[:b.line]...)
		rebuilt = append(rebuilt, head+parts[0])
		rebuilt = append(rebuilt, parts[1:len(parts)-1]...)
		rebuilt = append(rebuilt, parts[len(parts)-1]+tail)
		rebuilt = append(rebuilt, b.lines[b.line+1:]...)
		b.lines = rebuilt
		b.line += len(parts) - 1
		b.col = len(parts[len(parts)-1])
	}
	b.modified = true
}

// InsertRune inserts a single character at the cursor.
func (b *Buffer) InsertRune(r rune) {
	b.InsertText(string(r))
}

// Newline splits the current line at the cursor.
func (b *Buffer) Newline() {
	b.InsertText("\n")
}

// Backspace deletes the character before the cursor, joining lines at
// column zero.
func (b *Buffer) Backspace() {
	if b.col > 0 {
		cur := b.lines[b.line]
		// Step back over one rune, not one byte.
		prev := prevRuneStart(cur, b.col)
		b.lines[b.line] = cur[:prev] + cur[b.col:]
		b.col = prev
		b.modified = true
		return
	}
	if b.line == 0 {
		return
	}
	prevLine := b.lines[b.line-1]
	b.col = len(prevLine)
	b.lines[b.line-1] = prevLine + b.lines[b.line]
	b.lines = append(b.lines[:b.line], b.lines[b.line+1:]...)
	b.line--
	b.modified = true
}

// MoveCursor moves the cursor by the given line/column deltas, clamping to
// buffer bounds.
func (b *Buffer) MoveCursor(dLine, dCol int) {
	b.line += dLine
	if b.line < 0 {
		b.line = 0
	}
	if b.line >= len(b.lines) {
		b.line = len(b.lines) - 1
	}
	b.col += dCol
	if b.col < 0 {
		b.col = 0
	}
	if max := len(b.lines[b.line]); b.col > max {
		b.col = max
	}
}

// MoveLineStart moves the cursor to column zero.
func (b *Buffer) MoveLineStart() { b.col = 0 }

// MoveLineEnd moves the cursor past the last character of the line.
func (b *Buffer) MoveLineEnd() { b.col = len(b.lines[b.line]) }

// prevRuneStart returns the byte index of the rune ending at col.
func prevRuneStart(s string, col int) int {
	i := col - 1
	for i > 0 && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}
