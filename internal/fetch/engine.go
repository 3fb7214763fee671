package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transfer engine defaults.
const (
	// RequestTimeout is the implicit per-request deadline, measured from
	// submission. There is no script-exposed cancel; this is the only way
	// a transfer ends early.
	RequestTimeout = 30 * time.Second

	// DefaultPollBudget bounds how long one Advance call may wait for
	// completions. Non-zero so completions surface promptly, small enough
	// that the UI tick cadence is never starved.
	DefaultPollBudget = 5 * time.Millisecond

	// MaxResponseSize caps how much response body one transfer may
	// accumulate. A response that exceeds it fails as a protocol error
	// instead of growing without bound.
	MaxResponseSize = 10 * 1024 * 1024
)

// completion is the one immutable event a transfer goroutine emits when its
// network I/O finishes. Everything else about a transfer is owned by the
// control thread.
type completion struct {
	id     uint64
	failed bool

	status int
	body   []byte

	reason  TransferReason
	message string
}

// transfer is the engine-side bookkeeping for one in-flight request.
type transfer struct {
	req    *Request
	cancel context.CancelFunc
}

// Engine drives all in-flight transfers without blocking the control
// thread. Network I/O runs on engine-owned goroutines (Go's asynchronous
// socket primitive); observable state lives in the inflight map and is
// touched only by the control thread, so the single-writer discipline of
// the subsystem holds.
type Engine struct {
	client      *http.Client
	timeout     time.Duration
	maxResponse int64

	inflight    map[uint64]*transfer
	completions chan completion

	now func() time.Time
}

// NewEngine creates a transfer engine with the given per-request timeout.
// A timeout <= 0 uses RequestTimeout.
func NewEngine(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return &Engine{
		// Transport defaults are fine here; redirect policy, cookie jars
		// and pool tuning are explicitly out of scope.
		client:      &http.Client{},
		timeout:     timeout,
		maxResponse: MaxResponseSize,
		inflight:    make(map[uint64]*transfer, MaxConcurrent),
		// Each transfer sends exactly one completion and at most
		// MaxConcurrent are ever in flight, so this buffer guarantees the
		// send never blocks a transfer goroutine.
		completions: make(chan completion, 2*MaxConcurrent),
		now:         time.Now,
	}
}

// Register begins the transfer for an admitted request, moving it from
// Pending to InFlight. The error return covers request construction only;
// transfer failures surface later through Advance.
func (e *Engine) Register(req *Request) error {
	ctx, cancel := context.WithCancel(context.Background())

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		cancel()
		return fmt.Errorf("building request: %w", err)
	}
	for _, line := range SanitizeHeaders(req.Headers) {
		name, value := splitHeader(line)
		if name == "" {
			continue
		}
		hreq.Header.Add(name, value)
	}

	req.markInFlight()
	e.inflight[req.ID] = &transfer{req: req, cancel: cancel}
	go e.run(req.ID, hreq)
	return nil
}

// run performs the blocking network I/O for one transfer. It emits exactly
// one completion and never touches engine state.
func (e *Engine) run(id uint64, hreq *http.Request) {
	resp, err := e.client.Do(hreq)
	if err != nil {
		e.completions <- completion{
			id:      id,
			failed:  true,
			reason:  classifyTransferError(err),
			message: transferErrorMessage(err),
		}
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxResponse+1))
	if err != nil {
		e.completions <- completion{
			id:      id,
			failed:  true,
			reason:  classifyTransferError(err),
			message: transferErrorMessage(err),
		}
		return
	}
	if int64(len(body)) > e.maxResponse {
		e.completions <- completion{
			id:      id,
			failed:  true,
			reason:  TransferProtocolError,
			message: fmt.Sprintf("response exceeds %d bytes", e.maxResponse),
		}
		return
	}

	e.completions <- completion{id: id, status: resp.StatusCode, body: body}
}

// Advance performs one bounded round of completion collection and deadline
// enforcement, returning every request that became terminal during the
// round. Deadlines are checked on every call regardless of socket activity,
// so a stalled connection cannot outlive its deadline just because no
// readiness event ever fires.
//
// With nothing in flight, Advance returns immediately.
func (e *Engine) Advance(budget time.Duration) []*Request {
	if len(e.inflight) == 0 {
		return nil
	}
	if budget <= 0 {
		budget = DefaultPollBudget
	}

	var done []*Request

	// Deadline sweep first: an expired transfer is failed and its
	// connection actively aborted rather than waited on.
	now := e.now()
	for id, tr := range e.inflight {
		if now.Sub(tr.req.SubmittedAt) >= e.timeout {
			tr.cancel()
			tr.req.fail(TransferTimeout, fmt.Sprintf("no response within %s", e.timeout))
			delete(e.inflight, id)
			done = append(done, tr.req)
		}
	}

	timer := time.NewTimer(budget)
	defer timer.Stop()

	for len(e.inflight) > 0 {
		select {
		case c := <-e.completions:
			tr, ok := e.inflight[c.id]
			if !ok {
				// Late completion for a transfer already timed out or
				// aborted. Reported once is reported; drop it.
				continue
			}
			delete(e.inflight, c.id)
			tr.cancel()
			if c.failed {
				tr.req.fail(c.reason, c.message)
			} else {
				tr.req.complete(c.status, c.body)
			}
			done = append(done, tr.req)
		case <-timer.C:
			return done
		}
	}
	return done
}

// Abort cancels one in-flight transfer without producing a terminal
// result through Advance.
func (e *Engine) Abort(id uint64) {
	if tr, ok := e.inflight[id]; ok {
		tr.cancel()
		delete(e.inflight, id)
	}
}

// AbortAll cancels every in-flight transfer immediately. Their goroutines
// unwind on context cancellation; any late completions are dropped by
// Advance's id check (or simply never drained after shutdown).
func (e *Engine) AbortAll() {
	for id, tr := range e.inflight {
		tr.cancel()
		delete(e.inflight, id)
	}
}

// InFlightCount returns the number of registered, unfinished transfers.
func (e *Engine) InFlightCount() int { return len(e.inflight) }

// classifyTransferError maps a transport error onto the failure taxonomy.
func classifyTransferError(err error) TransferReason {
	var ne interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return TransferTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return TransferTimeout
	default:
		return TransferNetworkFailure
	}
}

// transferErrorMessage strips the noisy url.Error wrapping down to the
// underlying cause where possible.
func transferErrorMessage(err error) string {
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return unwrapped.Error()
	}
	return err.Error()
}
