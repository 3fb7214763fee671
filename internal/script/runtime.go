package script

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// Fetcher is the slice of the fetch subsystem the http module needs.
type Fetcher interface {
	Submit(rawURL, method string, body []byte, headers []string, callbackName string) (uint64, bool)
}

// Editor is the slice of the buffer the nib module exposes to scripts.
type Editor interface {
	Line(n int) (string, bool)
	LineCount() int
	InsertText(text string)
	Filename() string
}

// Notifier surfaces script-generated status messages.
type Notifier interface {
	Infof(format string, args ...any)
}

// Runtime owns the sandboxed Lua state. It is NOT goroutine-safe; all
// methods must be called from the editor's event-loop goroutine. That
// single-writer rule is what lets fetch callbacks run without locks.
type Runtime struct {
	L   *lua.LState
	log *logrus.Entry

	closed bool
}

// NewRuntime creates a sandboxed Lua state with only the safe standard
// libraries opened.
func NewRuntime(log *logrus.Entry) *Runtime {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Safe subset only. io, os, debug and package stay closed; scripts get
	// network and filesystem reach exclusively through host APIs.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	return &Runtime{L: L, log: log}
}

// CallGlobal invokes the named global function with the fetch callback
// contract arguments: exactly one of body and errMsg is meaningful. It
// implements fetch.Environment. The name is resolved against the current
// globals right now, not at submission time; a script may have redefined
// or removed it in the interim.
func (r *Runtime) CallGlobal(name string, body []byte, errMsg string) (bool, error) {
	if r.closed {
		return false, ErrClosed
	}

	fn := r.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return false, nil
	}

	bodyArg := lua.LValue(lua.LNil)
	errArg := lua.LValue(lua.LNil)
	if errMsg != "" {
		errArg = lua.LString(errMsg)
	} else {
		bodyArg = lua.LString(body)
	}

	r.L.Push(fn)
	r.L.Push(bodyArg)
	r.L.Push(errArg)
	if err := r.pcall(2); err != nil {
		return true, err
	}
	return true, nil
}

// pcall runs a pushed function with panic recovery, discarding returns.
func (r *Runtime) pcall(nargs int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return r.L.PCall(nargs, 0, nil)
}

// DoString executes Lua source, as typed at the :lua command.
func (r *Runtime) DoString(code string) (err error) {
	if r.closed {
		return ErrClosed
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return r.L.DoString(code)
}

// LoadInit runs dir/init.lua if it exists. A missing file is not an error;
// a broken one is reported but never fatal to startup.
func (r *Runtime) LoadInit(dir string) error {
	if r.closed {
		return ErrClosed
	}
	path := filepath.Join(dir, "init.lua")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if r.log != nil {
		r.log.Infof("loaded %s", path)
	}
	return nil
}

// HasGlobal reports whether name is a global function.
func (r *Runtime) HasGlobal(name string) bool {
	if r.closed {
		return false
	}
	return r.L.GetGlobal(name).Type() == lua.LTFunction
}

// Close releases the Lua state. The fetch subsystem must already be shut
// down when this runs; Close is the point after which a delivered callback
// would be a use-after-free.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}
