package fetch

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func admissionReason(t *testing.T, err error) AdmissionReason {
	t.Helper()
	var aerr *AdmissionError
	if !errors.As(err, &aerr) {
		t.Fatalf("error %v is not an AdmissionError", err)
	}
	return aerr.Reason
}

func TestValidateAcceptsPlainURLs(t *testing.T) {
	urls := []string{
		"http://example.com",
		"https://example.com/path?q=1",
		"https://" + strings.Repeat("a", 190) + ".com/x", // ~200 chars
	}
	for _, u := range urls {
		if err := Validate(u, nil); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		url  string
		body []byte
		want AdmissionReason
	}{
		{"empty", "", nil, ReasonEmptyURL},
		{"too long", "https://" + strings.Repeat("a", 3000), nil, ReasonTooLong},
		{"control byte", "https://exam\x01ple.com", nil, ReasonControlCharacters},
		{"control byte at end", "https://example.com/\x1f", nil, ReasonControlCharacters},
		{"no scheme", "api.example.com/x", nil, ReasonMissingScheme},
		{"ftp", "ftp://x", nil, ReasonUnknownScheme},
		{"file", "file:///etc/passwd", nil, ReasonUnknownScheme},
		{"custom scheme", "gopher://hole", nil, ReasonUnknownScheme},
		{"uppercase scheme", "HTTP://example.com", nil, ReasonUnknownScheme},
		{"body too large", "https://example.com", make([]byte, MaxBodySize+1), ReasonBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.url, tt.body)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want %s", tt.url, tt.want)
			}
			if got := admissionReason(t, err); got != tt.want {
				t.Errorf("reason = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateCheckOrder(t *testing.T) {
	// A URL that is both too long and has a bad scheme fails on length
	// first; checks short-circuit in a fixed order.
	u := "ftp://" + strings.Repeat("a", 3000)
	if got := admissionReason(t, Validate(u, nil)); got != ReasonTooLong {
		t.Errorf("reason = %s, want %s", got, ReasonTooLong)
	}
}

func TestValidateBodyBoundary(t *testing.T) {
	if err := Validate("https://example.com", make([]byte, 1024*1024)); err != nil {
		t.Errorf("1 MiB body rejected: %v", err)
	}
	if err := Validate("https://example.com", make([]byte, MaxBodySize)); err != nil {
		t.Errorf("body of exactly MaxBodySize rejected: %v", err)
	}
	if err := Validate("https://example.com", make([]byte, MaxBodySize+1)); err == nil {
		t.Error("body over MaxBodySize admitted")
	}
}

func TestSanitizeHeaders(t *testing.T) {
	in := []string{
		"Accept: application/json",
		"X-Bad\r\n: smuggled",
		"no-colon-here",
		"",
		"X-Dup: a",
		"X-Dup: b",
	}
	want := []string{
		"Accept: application/json",
		"X-Dup: a",
		"X-Dup: b",
	}
	if diff := cmp.Diff(want, SanitizeHeaders(in)); diff != "" {
		t.Errorf("SanitizeHeaders mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeHeadersEmpty(t *testing.T) {
	if got := SanitizeHeaders(nil); got != nil {
		t.Errorf("SanitizeHeaders(nil) = %v, want nil", got)
	}
}

func TestSplitHeader(t *testing.T) {
	name, value := splitHeader("Content-Type:  text/plain ")
	if name != "Content-Type" || value != "text/plain" {
		t.Errorf("splitHeader = (%q, %q), want (Content-Type, text/plain)", name, value)
	}
}
