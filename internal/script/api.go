package script

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	lua "github.com/yuin/gopher-lua"
)

// RegisterFetch installs the http module:
//
//	http.fetch(url, { method=, body=, headers={...}, callback="name" }) -> id | nil
//
// fetch returns the request id on admission and nil on any rejection.
// Scripts cannot distinguish rejection reasons; those go to host
// diagnostics only.
func (r *Runtime) RegisterFetch(f Fetcher) {
	mod := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"fetch": func(L *lua.LState) int {
			rawURL := L.CheckString(1)

			var method, callback string
			var body []byte
			var headers []string
			if opts := L.OptTable(2, nil); opts != nil {
				if s, ok := opts.RawGetString("method").(lua.LString); ok {
					method = string(s)
				}
				if s, ok := opts.RawGetString("body").(lua.LString); ok {
					body = []byte(s)
				}
				if s, ok := opts.RawGetString("callback").(lua.LString); ok {
					callback = string(s)
				}
				if t, ok := opts.RawGetString("headers").(*lua.LTable); ok {
					headers = tableToStrings(t)
				}
			}

			id, ok := f.Submit(rawURL, method, body, headers, callback)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(id))
			return 1
		},
	})
	r.L.SetGlobal("http", mod)
}

// RegisterEditor installs the nib module for buffer access and status
// messages.
func (r *Runtime) RegisterEditor(ed Editor, n Notifier) {
	mod := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"status": func(L *lua.LState) int {
			if n != nil {
				n.Infof("%s", L.CheckString(1))
			}
			return 0
		},
		"insert": func(L *lua.LState) int {
			if ed != nil {
				ed.InsertText(L.CheckString(1))
			}
			return 0
		},
		"line": func(L *lua.LState) int {
			if ed == nil {
				L.Push(lua.LNil)
				return 1
			}
			line, ok := ed.Line(int(L.CheckNumber(1)))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(line))
			return 1
		},
		"line_count": func(L *lua.LState) int {
			if ed == nil {
				L.Push(lua.LNumber(0))
				return 1
			}
			L.Push(lua.LNumber(ed.LineCount()))
			return 1
		},
		"filename": func(L *lua.LState) int {
			if ed == nil {
				L.Push(lua.LString(""))
				return 1
			}
			L.Push(lua.LString(ed.Filename()))
			return 1
		},
	})
	r.L.SetGlobal("nib", mod)
}

// RegisterJSON installs the json module so scripts can pick response bodies
// apart and build request bodies without a Lua JSON library:
//
//	json.get(doc, path) -> value | nil
//	json.set(doc, path, value) -> doc | nil, err
func (r *Runtime) RegisterJSON() {
	mod := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"get": func(L *lua.LState) int {
			doc := L.CheckString(1)
			path := L.CheckString(2)
			res := gjson.Get(doc, path)
			if !res.Exists() {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(toLua(L, res.Value()))
			return 1
		},
		"set": func(L *lua.LState) int {
			doc := L.CheckString(1)
			path := L.CheckString(2)
			value := toGo(L.Get(3))
			out, err := sjson.Set(doc, path, value)
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(lua.LString(out))
			return 1
		},
	})
	r.L.SetGlobal("json", mod)
}
