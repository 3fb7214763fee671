// Package script embeds the editor's Lua runtime.
//
// The runtime is single-threaded: every Lua operation happens on the
// editor's event-loop goroutine, either synchronously while handling a key
// or command, or during fetch callback delivery on a tick. The state is
// sandboxed - io, os, debug and package are never opened - so scripts reach
// the outside world only through the APIs the host registers (the nib,
// http and json modules).
package script
