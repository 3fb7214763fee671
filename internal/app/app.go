// Package app wires the editor together and runs the single-threaded event
// loop. Every subsystem - buffer, status line, Lua runtime, fetch - is
// mutated only from this loop; the only other goroutines in the process are
// the terminal poller, the config watcher and the fetch engine's transfer
// workers, and all of them communicate with the loop through channels.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/dshills/nib/internal/config"
	"github.com/dshills/nib/internal/editor"
	"github.com/dshills/nib/internal/fetch"
	"github.com/dshills/nib/internal/history"
	"github.com/dshills/nib/internal/script"
	"github.com/dshills/nib/internal/status"
	"github.com/dshills/nib/internal/term"
)

// TickInterval is the main-loop heartbeat. Each tick polls the fetch
// subsystem and refreshes the display even without input.
const TickInterval = 20 * time.Millisecond

type mode int

const (
	modeEdit mode = iota
	modeCommand
)

// App owns all editor state. Not goroutine-safe; Run is the only entry
// point after New.
type App struct {
	cfg     config.Config
	cfgPath string

	buf     *editor.Buffer
	status  *status.Line
	runtime *script.Runtime
	fetch   *fetch.Subsystem
	hist    *history.Store
	watcher *config.Watcher
	screen  *term.Screen

	log      *logrus.Entry
	closeLog func()

	mode    mode
	cmdline string
	histSeq uint64

	width, height int
	topLine       int
	quit          bool
}

// New assembles the editor. filename may be empty for a scratch buffer.
// The terminal is not touched until Run.
func New(cfg config.Config, cfgPath, filename string) (*App, error) {
	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	log := logger.WithField("component", "app")

	buf := editor.New()
	if filename != "" {
		buf, err = editor.Load(filename)
		if err != nil {
			closeLog()
			return nil, err
		}
	}

	st := status.New()
	runtime := script.NewRuntime(logger.WithField("component", "script"))

	limits := fetch.DefaultLimits()
	limits.RateLimit = cfg.Fetch.RateLimit
	sub := fetch.New(runtime, limits,
		fetch.WithLogger(logger.WithField("component", "fetch")),
		fetch.WithNotifier(st),
	)

	runtime.RegisterFetch(sub)
	runtime.RegisterEditor(buf, st)
	runtime.RegisterJSON()

	hist, err := history.Open(cfg.Editor.HistoryFile)
	if err != nil {
		// History is a convenience; the editor still works without it.
		log.Warnf("command history unavailable: %v", err)
		hist = nil
	}

	a := &App{
		cfg:      cfg,
		cfgPath:  cfgPath,
		buf:      buf,
		status:   st,
		runtime:  runtime,
		fetch:    sub,
		hist:     hist,
		log:      log,
		closeLog: closeLog,
		width:    80,
		height:   24,
	}

	if err := runtime.LoadInit(cfg.Editor.ScriptDir); err != nil {
		log.Warnf("init script: %v", err)
		st.Errorf("init.lua: %v", err)
	}
	return a, nil
}

// Run opens the terminal and drives the event loop until quit.
func (a *App) Run() error {
	screen, err := term.New()
	if err != nil {
		a.close()
		return fmt.Errorf("opening terminal: %w", err)
	}
	a.screen = screen
	a.width, a.height = screen.Size()

	if w, err := config.NewWatcher(a.cfgPath, a.log); err != nil {
		a.log.Warnf("config watcher unavailable: %v", err)
	} else {
		a.watcher = w
	}

	a.log.Infof("nib started, file=%q", a.buf.Filename())

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	events := screen.Events()

	var changed <-chan struct{}
	if a.watcher != nil {
		changed = a.watcher.Changed()
	}

	a.render()
	for !a.quit {
		select {
		case ev, ok := <-events:
			if !ok {
				a.quit = true
				continue
			}
			a.handleEvent(ev)
		case <-ticker.C:
			a.tick()
		case <-changed:
			a.reloadConfig()
		}
		a.render()
	}

	a.shutdown()
	return nil
}

// tick runs the per-heartbeat work: advance fetches, refresh indicators.
func (a *App) tick() {
	a.fetch.PollOnce()
	a.status.SetFetchCount(a.fetch.ActiveCount())
}

// shutdown tears everything down in dependency order. The fetch subsystem
// must be fully stopped before the Lua state closes; a callback delivered
// into a closed state would crash the process.
func (a *App) shutdown() {
	a.fetch.ShutdownAll()
	a.runtime.Close()
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.screen != nil {
		a.screen.Fini()
	}
	a.log.Info("nib stopped")
	a.close()
}

// close releases the resources New opened. Safe after partial construction.
func (a *App) close() {
	if a.hist != nil {
		a.hist.Close()
		a.hist = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// reloadConfig re-reads the config file and applies the tunable knobs.
// Runs on the event-loop goroutine, so the rate limit change is ordered
// with every Submit.
func (a *App) reloadConfig() {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		a.log.Warnf("config reload: %v", err)
		a.status.Errorf("config reload failed: %v", err)
		return
	}
	a.fetch.SetRateLimit(cfg.Fetch.RateLimit)
	a.cfg = cfg
	a.log.Infof("config reloaded, rate_limit=%d", cfg.Fetch.RateLimit)
	a.status.Infof("config reloaded")
}

// handleEvent routes one terminal event.
func (a *App) handleEvent(ev term.Event) {
	switch ev.Type {
	case term.EventResize:
		a.width, a.height = ev.Width, ev.Height
	case term.EventKey:
		if a.mode == modeCommand {
			a.handleCommandKey(ev)
		} else {
			a.handleEditKey(ev)
		}
	}
}

// handleEditKey applies a key in edit mode.
func (a *App) handleEditKey(ev term.Event) {
	switch ev.Key {
	case term.KeyCtrlQ:
		if a.buf.Modified() {
			a.status.Warnf("unsaved changes (use :q! to discard)")
			return
		}
		a.quit = true
	case term.KeyCtrlS:
		a.saveBuffer()
	case term.KeyCtrlO:
		a.mode = modeCommand
		a.cmdline = ""
		a.histSeq = 0
	case term.KeyRune:
		a.buf.InsertRune(ev.Rune)
	case term.KeyTab:
		a.buf.InsertRune('\t')
	case term.KeyEnter:
		a.buf.Newline()
	case term.KeyBackspace:
		a.buf.Backspace()
	case term.KeyUp:
		a.buf.MoveCursor(-1, 0)
	case term.KeyDown:
		a.buf.MoveCursor(1, 0)
	case term.KeyLeft:
		a.buf.MoveCursor(0, -1)
	case term.KeyRight:
		a.buf.MoveCursor(0, 1)
	case term.KeyHome:
		a.buf.MoveLineStart()
	case term.KeyEnd:
		a.buf.MoveLineEnd()
	}
}

// handleCommandKey edits or submits the command line.
func (a *App) handleCommandKey(ev term.Event) {
	switch ev.Key {
	case term.KeyEscape:
		a.mode = modeEdit
		a.cmdline = ""
	case term.KeyEnter:
		cmd := strings.TrimSpace(a.cmdline)
		a.mode = modeEdit
		a.cmdline = ""
		if cmd == "" {
			return
		}
		if a.hist != nil {
			if _, err := a.hist.Add(cmd); err != nil {
				a.log.Warnf("history: %v", err)
			}
		}
		a.execute(cmd)
	case term.KeyBackspace:
		if a.cmdline != "" {
			a.cmdline = a.cmdline[:len(a.cmdline)-1]
		}
	case term.KeyUp:
		a.recallHistory(true)
	case term.KeyDown:
		a.recallHistory(false)
	case term.KeyRune:
		a.cmdline += string(ev.Rune)
	}
}

// recallHistory replaces the command line with the previous or next stored
// command.
func (a *App) recallHistory(back bool) {
	if a.hist == nil {
		return
	}
	var cmd string
	var seq uint64
	var err error
	if back {
		cmd, seq, err = a.hist.Before(a.histSeq)
	} else {
		if a.histSeq == 0 {
			return
		}
		cmd, seq, err = a.hist.After(a.histSeq)
		if err == history.ErrNoEntry {
			// Walked past the newest entry: back to a fresh line.
			a.histSeq = 0
			a.cmdline = ""
			return
		}
	}
	if err != nil {
		return
	}
	a.histSeq = seq
	a.cmdline = cmd
}

// execute runs one command-line command.
func (a *App) execute(cmd string) {
	switch {
	case cmd == "w":
		a.saveBuffer()
	case cmd == "q":
		if a.buf.Modified() {
			a.status.Warnf("unsaved changes (use :q! to discard)")
			return
		}
		a.quit = true
	case cmd == "q!":
		a.quit = true
	case cmd == "wq":
		if a.saveBuffer() {
			a.quit = true
		}
	case cmd == "stop":
		a.fetch.ShutdownAll()
		a.status.Infof("fetches stopped")
	case strings.HasPrefix(cmd, "lua "):
		if err := a.runtime.DoString(strings.TrimPrefix(cmd, "lua ")); err != nil {
			a.status.Errorf("lua: %v", err)
			a.log.Warnf("lua command: %v", err)
		}
	default:
		a.status.Errorf("unknown command: %s", cmd)
	}
}

// saveBuffer writes the buffer, reporting the result on the status line.
func (a *App) saveBuffer() bool {
	if err := a.buf.Save(); err != nil {
		a.status.Errorf("%v", err)
		a.log.Warnf("save: %v", err)
		return false
	}
	a.status.Infof("wrote %s", a.buf.Filename())
	return true
}

// render repaints the screen: buffer window, then the bottom line, which
// shows the command prompt in command mode and the status line otherwise.
func (a *App) render() {
	if a.screen == nil {
		return
	}
	a.screen.Clear()

	textRows := a.height - 1
	if textRows < 1 {
		textRows = 1
	}
	line, col := a.buf.Cursor()
	a.scrollTo(line, textRows)

	style := tcell.StyleDefault
	for row := 0; row < textRows; row++ {
		text, ok := a.buf.Line(a.topLine + row + 1)
		if !ok {
			break
		}
		a.screen.SetText(0, row, text, style)
	}

	bottom := a.height - 1
	if a.mode == modeCommand {
		a.screen.SetText(0, bottom, ":"+a.cmdline, style.Reverse(true))
		a.screen.ShowCursor(len(a.cmdline)+1, bottom)
	} else {
		a.status.SetFile(a.buf.Filename(), a.buf.Modified())
		a.status.SetCursor(line, col)
		a.screen.SetText(0, bottom, a.status.Render(a.width), style.Reverse(true))
		a.screen.ShowCursor(col, line-a.topLine)
	}
	a.screen.Show()
}

// scrollTo keeps the cursor line inside the visible window.
func (a *App) scrollTo(line, rows int) {
	if line < a.topLine {
		a.topLine = line
	}
	if line >= a.topLine+rows {
		a.topLine = line - rows + 1
	}
}
