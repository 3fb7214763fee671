// Package term wraps tcell behind the small surface the editor needs:
// screen drawing and a channel of input events.
package term

import (
	"github.com/gdamore/tcell/v2"
)

// EventType identifies a terminal event.
type EventType int

const (
	// EventNone - an event the editor does not care about.
	EventNone EventType = iota

	// EventKey - a key press.
	EventKey

	// EventResize - the terminal changed size.
	EventResize
)

// Key identifies special keys; printable input arrives as KeyRune.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyCtrlO
	KeyCtrlQ
	KeyCtrlS
)

// Event is one terminal input event.
type Event struct {
	Type EventType
	Key  Key
	Rune rune

	Width  int
	Height int
}

// Screen wraps a tcell screen. All drawing methods must be called from the
// event-loop goroutine; only the event-polling goroutine started by Events
// touches PollEvent.
type Screen struct {
	s      tcell.Screen
	events chan Event
	done   chan struct{}
}

// New creates and initializes a terminal screen.
func New() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	sc := &Screen{
		s:      s,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go sc.poll()
	return sc, nil
}

// Events returns the input event channel fed by the polling goroutine.
func (sc *Screen) Events() <-chan Event { return sc.events }

// poll forwards terminal events into the channel. It exits when Fini
// unblocks PollEvent.
func (sc *Screen) poll() {
	for {
		ev := sc.s.PollEvent()
		if ev == nil {
			close(sc.events)
			return
		}
		converted, ok := convertEvent(ev)
		if !ok {
			continue
		}
		select {
		case sc.events <- converted:
		case <-sc.done:
			return
		}
	}
}

// Size returns the terminal dimensions.
func (sc *Screen) Size() (int, int) { return sc.s.Size() }

// Clear clears the backing buffer.
func (sc *Screen) Clear() { sc.s.Clear() }

// SetText writes a string starting at (x, y) with the given style.
func (sc *Screen) SetText(x, y int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		sc.s.SetContent(col, y, r, nil, style)
		col++
	}
}

// ShowCursor places the hardware cursor.
func (sc *Screen) ShowCursor(x, y int) { sc.s.ShowCursor(x, y) }

// Show flushes the backing buffer to the terminal.
func (sc *Screen) Show() { sc.s.Show() }

// Fini restores the terminal. Safe to call once, from the event loop,
// after the loop has stopped consuming events.
func (sc *Screen) Fini() {
	close(sc.done)
	sc.s.Fini()
}

// convertEvent maps a tcell event to the editor's event type.
func convertEvent(ev tcell.Event) (Event, bool) {
	switch tev := ev.(type) {
	case *tcell.EventKey:
		return convertKeyEvent(tev), true
	case *tcell.EventResize:
		w, h := tev.Size()
		return Event{Type: EventResize, Width: w, Height: h}, true
	default:
		return Event{}, false
	}
}

// convertKeyEvent maps tcell keys to editor keys.
func convertKeyEvent(ev *tcell.EventKey) Event {
	switch ev.Key() {
	case tcell.KeyRune:
		return Event{Type: EventKey, Key: KeyRune, Rune: ev.Rune()}
	case tcell.KeyEnter:
		return Event{Type: EventKey, Key: KeyEnter}
	case tcell.KeyEscape:
		return Event{Type: EventKey, Key: KeyEscape}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Event{Type: EventKey, Key: KeyBackspace}
	case tcell.KeyDelete:
		return Event{Type: EventKey, Key: KeyDelete}
	case tcell.KeyTab:
		return Event{Type: EventKey, Key: KeyTab}
	case tcell.KeyUp:
		return Event{Type: EventKey, Key: KeyUp}
	case tcell.KeyDown:
		return Event{Type: EventKey, Key: KeyDown}
	case tcell.KeyLeft:
		return Event{Type: EventKey, Key: KeyLeft}
	case tcell.KeyRight:
		return Event{Type: EventKey, Key: KeyRight}
	case tcell.KeyHome:
		return Event{Type: EventKey, Key: KeyHome}
	case tcell.KeyEnd:
		return Event{Type: EventKey, Key: KeyEnd}
	case tcell.KeyCtrlO:
		return Event{Type: EventKey, Key: KeyCtrlO}
	case tcell.KeyCtrlQ:
		return Event{Type: EventKey, Key: KeyCtrlQ}
	case tcell.KeyCtrlS:
		return Event{Type: EventKey, Key: KeyCtrlS}
	default:
		return Event{Type: EventNone}
	}
}
