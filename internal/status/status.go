// Package status models the editor's bottom status line: file info on the
// left, transient messages on the right. It is the host's non-fatal
// diagnostic surface - fetch delivery problems and script messages land
// here instead of crashing anything.
package status

import (
	"fmt"
	"time"
)

// Level classifies a transient message.
type Level int

const (
	LevelNone Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// DefaultMessageTTL is how long a transient message stays visible.
const DefaultMessageTTL = 5 * time.Second

// Line is the status line model. Mutated only from the event-loop
// goroutine; rendered once per tick.
type Line struct {
	filename string
	modified bool
	curLine  int
	curCol   int
	fetches  int

	message string
	level   Level
	expires time.Time

	ttl time.Duration
	now func() time.Time
}

// New creates an empty status line.
func New() *Line {
	return &Line{ttl: DefaultMessageTTL, now: time.Now}
}

// SetFile updates the file info segment.
func (l *Line) SetFile(name string, modified bool) {
	l.filename = name
	l.modified = modified
}

// SetCursor updates the cursor segment (zero-based in, 1-based out).
func (l *Line) SetCursor(line, col int) {
	l.curLine = line + 1
	l.curCol = col + 1
}

// SetFetchCount updates the in-flight fetch indicator.
func (l *Line) SetFetchCount(n int) { l.fetches = n }

// Infof shows a transient informational message.
func (l *Line) Infof(format string, args ...any) { l.setMessage(LevelInfo, format, args...) }

// Warnf shows a transient warning. Implements the fetch dispatcher's
// Notifier.
func (l *Line) Warnf(format string, args ...any) { l.setMessage(LevelWarn, format, args...) }

// Errorf shows a transient error message.
func (l *Line) Errorf(format string, args ...any) { l.setMessage(LevelError, format, args...) }

func (l *Line) setMessage(level Level, format string, args ...any) {
	l.message = fmt.Sprintf(format, args...)
	l.level = level
	l.expires = l.now().Add(l.ttl)
}

// Message returns the current transient message, expiring it lazily.
func (l *Line) Message() (string, Level) {
	if l.message != "" && l.now().After(l.expires) {
		l.message = ""
		l.level = LevelNone
	}
	return l.message, l.level
}

// Render formats the full status line for a terminal of the given width.
func (l *Line) Render(width int) string {
	name := l.filename
	if name == "" {
		name = "[scratch]"
	}
	mark := ""
	if l.modified {
		mark = " [+]"
	}
	left := fmt.Sprintf(" %s%s  %d:%d", name, mark, l.curLine, l.curCol)
	if l.fetches > 0 {
		left += fmt.Sprintf("  ~%d fetch", l.fetches)
	}

	msg, _ := l.Message()
	if msg != "" {
		left += "  | " + msg
	}

	if len(left) > width && width > 0 {
		left = left[:width]
	}
	for len(left) < width {
		left += " "
	}
	return left
}
