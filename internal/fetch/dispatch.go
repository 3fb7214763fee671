package fetch

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Environment is the scripting environment the Dispatcher delivers into.
// The subsystem resolves callbacks by name at delivery time, so a script
// may redefine or remove the function between submission and completion.
type Environment interface {
	// CallGlobal invokes the named global function with the callback
	// contract arguments: exactly one of body and errMsg is meaningful.
	// It returns found=false when the name does not resolve to a function,
	// and a non-nil error when the function itself raised one.
	CallGlobal(name string, body []byte, errMsg string) (found bool, err error)
}

// Notifier is the host's non-fatal diagnostic surface (the status line).
type Notifier interface {
	Warnf(format string, args ...any)
}

// Dispatcher delivers terminal request outcomes into the scripting
// environment, strictly on the tick thread. Once disabled it silently
// discards every outcome; shutdown disables it before the scripting
// environment is torn down, so a callback can never run into a dead
// interpreter.
type Dispatcher struct {
	env      Environment
	notifier Notifier
	log      *logrus.Entry

	disabled bool
}

// NewDispatcher creates a Dispatcher delivering into env. notifier and log
// may be nil; diagnostics are then dropped.
func NewDispatcher(env Environment, notifier Notifier, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{env: env, notifier: notifier, log: log}
}

// Disable stops all future deliveries. Irreversible by design.
func (d *Dispatcher) Disable() { d.disabled = true }

// Disabled reports whether the dispatcher has been disabled.
func (d *Dispatcher) Disabled() bool { return d.disabled }

// Deliver invokes the request's callback with its terminal outcome. A
// callback name that no longer resolves is a non-fatal diagnostic, never an
// error that propagates past the tick; the same goes for an error raised
// inside the callback itself.
func (d *Dispatcher) Deliver(req *Request) {
	if d.disabled || d.env == nil {
		return
	}

	res := req.Result()
	if res == nil {
		// Non-terminal requests are never handed to the dispatcher.
		return
	}

	var body []byte
	var errMsg string
	if req.State() == StateCompleted {
		body = res.Body
	} else {
		errMsg = fmt.Sprintf("%s: %s", res.Reason, res.Message)
	}

	found, err := d.env.CallGlobal(req.CallbackName, body, errMsg)
	switch {
	case !found:
		d.warnf("fetch %d: callback %q not found, result discarded", req.ID, req.CallbackName)
	case err != nil:
		d.warnf("fetch %d: callback %q failed: %v", req.ID, req.CallbackName, err)
	}
}

// warnf surfaces a delivery diagnostic to the status line and the log.
func (d *Dispatcher) warnf(format string, args ...any) {
	if d.notifier != nil {
		d.notifier.Warnf(format, args...)
	}
	if d.log != nil {
		d.log.Warnf(format, args...)
	}
}
