package fetch

import (
	"errors"
	"fmt"
)

// Subsystem errors.
var (
	// ErrShutdown is returned when submitting after ShutdownAll.
	ErrShutdown = errors.New("fetch subsystem is shut down")
)

// AdmissionReason classifies why a submission was not admitted.
type AdmissionReason int

// Admission rejection reasons.
const (
	// ReasonEmptyURL - the URL is empty.
	ReasonEmptyURL AdmissionReason = iota

	// ReasonTooLong - the URL exceeds MaxURLLength.
	ReasonTooLong

	// ReasonControlCharacters - the URL contains ASCII control bytes.
	ReasonControlCharacters

	// ReasonMissingScheme - the URL has no scheme:// prefix.
	ReasonMissingScheme

	// ReasonUnknownScheme - the URL scheme is not http or https.
	ReasonUnknownScheme

	// ReasonBodyTooLarge - the request body exceeds MaxBodySize.
	ReasonBodyTooLarge

	// ReasonRateLimited - too many submissions in the current window.
	ReasonRateLimited

	// ReasonTooManyConcurrentRequests - no free concurrency slot.
	ReasonTooManyConcurrentRequests
)

// String returns a string representation of the reason.
func (r AdmissionReason) String() string {
	switch r {
	case ReasonEmptyURL:
		return "empty URL"
	case ReasonTooLong:
		return "URL too long"
	case ReasonControlCharacters:
		return "URL contains control characters"
	case ReasonMissingScheme:
		return "URL has no scheme"
	case ReasonUnknownScheme:
		return "URL scheme not allowed"
	case ReasonBodyTooLarge:
		return "request body too large"
	case ReasonRateLimited:
		return "rate limit exceeded"
	case ReasonTooManyConcurrentRequests:
		return "too many concurrent requests"
	default:
		return "unknown"
	}
}

// AdmissionError is the rejection produced by Submit before a Request is
// ever constructed. It is surfaced only to host diagnostics; the scripting
// surface sees a nil request id.
type AdmissionError struct {
	Reason AdmissionReason
	Detail string
}

// Error implements the error interface.
func (e *AdmissionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request not admitted: %s (%s)", e.Reason, e.Detail)
	}
	return fmt.Sprintf("request not admitted: %s", e.Reason)
}

// TransferReason classifies a failed transfer.
type TransferReason int

// Transfer failure classes.
const (
	// TransferNetworkFailure - connection, DNS or transport-level failure.
	TransferNetworkFailure TransferReason = iota

	// TransferTimeout - the request exceeded its deadline.
	TransferTimeout

	// TransferProtocolError - the response could not be consumed.
	TransferProtocolError
)

// String returns a string representation of the reason.
func (r TransferReason) String() string {
	switch r {
	case TransferNetworkFailure:
		return "network failure"
	case TransferTimeout:
		return "timeout"
	case TransferProtocolError:
		return "protocol error"
	default:
		return "unknown"
	}
}
