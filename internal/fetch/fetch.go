package fetch

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Limits configures the tunable admission knobs. The structural policy
// constants (MaxURLLength, MaxBodySize, MaxConcurrent, allowed schemes) are
// part of the observable contract and stay fixed.
type Limits struct {
	// RateLimit is the number of submissions admitted per RateWindow.
	// <= 0 disables rate limiting.
	RateLimit int

	// Timeout is the per-request deadline. Zero means RequestTimeout.
	Timeout time.Duration

	// PollBudget bounds one PollOnce round. Zero means DefaultPollBudget.
	PollBudget time.Duration
}

// DefaultLimits returns the standard production limits.
func DefaultLimits() Limits {
	return Limits{
		RateLimit:  DefaultRateLimit,
		Timeout:    RequestTimeout,
		PollBudget: DefaultPollBudget,
	}
}

// Subsystem composes validator, rate limiter, governor, transfer engine and
// dispatcher behind the two calls the host makes: Submit from scripts and
// PollOnce from the main loop. It is an owned object, not process state;
// independent instances (as under test) do not interfere.
//
// All methods must be called from the host's event-loop goroutine.
type Subsystem struct {
	limiter    *RateLimiter
	governor   *Governor
	engine     *Engine
	dispatcher *Dispatcher

	registry   map[uint64]*Request
	pollBudget time.Duration

	log      *logrus.Entry
	shutdown bool

	now func() time.Time
}

// Option configures a Subsystem.
type Option func(*Subsystem)

// WithLogger sets the diagnostics logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Subsystem) {
		s.log = log
		s.dispatcher.log = log
	}
}

// WithNotifier sets the status-line diagnostic surface.
func WithNotifier(n Notifier) Option {
	return func(s *Subsystem) { s.dispatcher.notifier = n }
}

// New creates a Subsystem delivering callbacks into env.
func New(env Environment, limits Limits, opts ...Option) *Subsystem {
	s := &Subsystem{
		limiter:    NewRateLimiter(limits.RateLimit, RateWindow),
		governor:   NewGovernor(MaxConcurrent),
		engine:     NewEngine(limits.Timeout),
		dispatcher: NewDispatcher(env, nil, nil),
		registry:   make(map[uint64]*Request, MaxConcurrent),
		pollBudget: limits.PollBudget,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs admission inline and, on success, registers the transfer and
// returns its id. It never blocks. On any rejection it returns (0, false);
// the rejection reason goes to host diagnostics only, so a misbehaving
// script sees nothing but a nil id.
func (s *Subsystem) Submit(rawURL, method string, body []byte, headers []string, callbackName string) (uint64, bool) {
	if s.shutdown {
		s.logReject(rawURL, ErrShutdown)
		return 0, false
	}

	if err := Validate(rawURL, body); err != nil {
		s.logReject(rawURL, err)
		return 0, false
	}
	if !s.limiter.TryAdmit() {
		s.logReject(rawURL, &AdmissionError{Reason: ReasonRateLimited})
		return 0, false
	}
	id, ok := s.governor.TryReserve()
	if !ok {
		s.logReject(rawURL, &AdmissionError{Reason: ReasonTooManyConcurrentRequests})
		return 0, false
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}

	req := &Request{
		ID:           id,
		URL:          rawURL,
		Method:       method,
		Body:         body,
		Headers:      headers,
		CallbackName: callbackName,
		SubmittedAt:  s.now(),
		Trace:        uuid.NewString(),
	}
	s.registry[id] = req

	if err := s.engine.Register(req); err != nil {
		// Construction failed before any I/O started; the slot goes back
		// and the script sees an ordinary rejection.
		delete(s.registry, id)
		s.governor.Release(id)
		s.logReject(rawURL, err)
		return 0, false
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"id":       req.ID,
			"trace":    req.Trace,
			"method":   req.Method,
			"callback": req.CallbackName,
		}).Debugf("fetch submitted: %s", req.URL)
	}
	return id, true
}

// PollOnce advances all in-flight transfers by one bounded round and
// delivers every newly-terminal outcome. Called once per host main-loop
// tick; cheap when nothing is in flight.
func (s *Subsystem) PollOnce() {
	if s.shutdown {
		return
	}
	for _, req := range s.engine.Advance(s.pollBudget) {
		s.dispatcher.Deliver(req)
		delete(s.registry, req.ID)
		s.governor.Release(req.ID)
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"id":    req.ID,
				"trace": req.Trace,
				"state": req.State().String(),
			}).Debug("fetch finished")
		}
	}
}

// ShutdownAll aborts every in-flight transfer, discards all pending
// callbacks and releases all slots. The dispatcher is disabled first, so
// no callback can fire after this returns even if a transfer completes
// underneath. Idempotent.
func (s *Subsystem) ShutdownAll() {
	if s.shutdown {
		return
	}
	s.shutdown = true
	s.dispatcher.Disable()
	s.engine.AbortAll()
	clear(s.registry)
	s.governor.ReleaseAll()
	if s.log != nil {
		s.log.Info("fetch subsystem shut down")
	}
}

// ActiveCount returns the number of non-terminal requests.
func (s *Subsystem) ActiveCount() int { return s.governor.ActiveCount() }

// SetRateLimit updates the per-window submission limit. Applied from the
// tick thread on config reload.
func (s *Subsystem) SetRateLimit(limit int) { s.limiter.SetLimit(limit) }

// logReject records an admission rejection for host diagnostics.
func (s *Subsystem) logReject(rawURL string, err error) {
	if s.log == nil {
		return
	}
	s.log.WithField("url", truncateForLog(rawURL)).Debugf("fetch rejected: %v", err)
}

// truncateForLog keeps oversized or hostile URLs from flooding the log.
func truncateForLog(s string) string {
	const max = 128
	if len(s) > max {
		s = s[:max] + "..."
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			out = append(out, '?')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
