// Package fetch implements the asynchronous HTTP request subsystem that
// backs the editor's scripting API.
//
// Scripts submit requests synchronously through Subsystem.Submit; admission
// (validation, rate limiting, concurrency governance) happens inline and a
// rejected request never allocates an id. Admitted requests are driven to
// completion by the transfer engine without blocking the UI thread, and
// their results are delivered back into the scripting environment by name,
// strictly from PollOnce on the host's main-loop tick.
//
// A Subsystem is single-threaded by design: Submit, PollOnce and
// ShutdownAll must all be called from the same goroutine (the editor's
// event loop). The transfer engine uses goroutines internally for network
// I/O, but they communicate only through an immutable completion channel
// and never touch subsystem state.
package fetch
