package fetch

import "time"

// State represents the lifecycle state of a Request.
type State int

// Request states. Transitions are one-directional:
// Pending -> InFlight -> {Completed, Failed}. A rejected submission never
// constructs a Request, so there is no rejected state.
const (
	// StatePending - admitted but not yet registered with the engine.
	StatePending State = iota

	// StateInFlight - the transfer is in progress.
	StateInFlight

	// StateCompleted - the transfer finished with an HTTP response.
	StateCompleted

	// StateFailed - the transfer failed or timed out.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal returns true for Completed and Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Request is one admitted HTTP call. It is created only by a successful
// Submit and evicted from the registry immediately after its callback has
// been dispatched (or after shutdown discards it).
type Request struct {
	// ID is unique for the process lifetime and never reused.
	ID uint64

	URL     string
	Method  string
	Body    []byte
	Headers []string

	// CallbackName is captured by value at submission time. It is resolved
	// against the scripting environment's globals at delivery time, not now.
	CallbackName string

	// SubmittedAt anchors the transfer deadline.
	SubmittedAt time.Time

	// Trace correlates log lines for this request. Not script-visible.
	Trace string

	state  State
	result *Result
}

// Result is populated only in terminal states.
type Result struct {
	// StatusCode and Body are set on Completed.
	StatusCode int
	Body       []byte

	// Reason and Message are set on Failed.
	Reason  TransferReason
	Message string
}

// State returns the current lifecycle state.
func (r *Request) State() State { return r.state }

// Result returns the terminal result, or nil if the request is not
// terminal yet.
func (r *Request) Result() *Result { return r.result }

// markInFlight records registration with the transfer engine.
func (r *Request) markInFlight() {
	if r.state == StatePending {
		r.state = StateInFlight
	}
}

// complete moves the request to Completed. No-op if already terminal.
func (r *Request) complete(status int, body []byte) {
	if r.state.Terminal() {
		return
	}
	r.state = StateCompleted
	r.result = &Result{StatusCode: status, Body: body}
}

// fail moves the request to Failed. No-op if already terminal.
func (r *Request) fail(reason TransferReason, msg string) {
	if r.state.Terminal() {
		return
	}
	r.state = StateFailed
	r.result = &Result{Reason: reason, Message: msg}
}
