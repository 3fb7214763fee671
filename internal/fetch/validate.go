package fetch

import "strings"

// Policy limits. These are part of the subsystem's observable contract.
const (
	// MaxURLLength is the maximum accepted URL length in bytes.
	MaxURLLength = 2048

	// MaxBodySize is the maximum accepted request body size in bytes.
	MaxBodySize = 5 * 1024 * 1024

	// MaxConcurrent is the maximum number of requests that may be
	// non-terminal at once.
	MaxConcurrent = 10
)

// allowedSchemes is the URL scheme allow-list. Comparison is case-sensitive;
// a script that sends "HTTP://" is rejected rather than normalized.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// Validate runs the pure admission checks on a proposed request. It returns
// nil if the request is admissible, or an *AdmissionError naming the first
// failed check. Checks run in a fixed order and short-circuit.
func Validate(rawURL string, body []byte) error {
	if rawURL == "" {
		return &AdmissionError{Reason: ReasonEmptyURL}
	}
	if len(rawURL) > MaxURLLength {
		return &AdmissionError{Reason: ReasonTooLong}
	}
	if containsControl(rawURL) {
		return &AdmissionError{Reason: ReasonControlCharacters}
	}
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return &AdmissionError{Reason: ReasonMissingScheme}
	}
	if scheme := rawURL[:idx]; !allowedSchemes[scheme] {
		return &AdmissionError{Reason: ReasonUnknownScheme, Detail: scheme}
	}
	if len(body) > MaxBodySize {
		return &AdmissionError{Reason: ReasonBodyTooLarge}
	}
	return nil
}

// SanitizeHeaders filters a raw header list down to well-formed lines.
// Headers are advisory metadata here: a malformed line (no colon, or any
// embedded control byte) is dropped silently rather than failing the whole
// request. Order and duplicates of surviving lines are preserved.
func SanitizeHeaders(headers []string) []string {
	if len(headers) == 0 {
		return nil
	}
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h == "" || containsControl(h) {
			continue
		}
		if !strings.Contains(h, ":") {
			continue
		}
		out = append(out, h)
	}
	return out
}

// splitHeader splits a sanitized header line into name and value.
func splitHeader(line string) (name, value string) {
	idx := strings.Index(line, ":")
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
}

// containsControl reports whether s contains any ASCII control byte
// (0x00-0x1F). The check is byte-wise so control bytes hidden inside
// multi-byte sequences are still caught.
func containsControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			return true
		}
	}
	return false
}
