package history

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndLast(t *testing.T) {
	s := openTestStore(t)

	for _, cmd := range []string{"w", "lua print(1)", "q"} {
		if _, err := s.Add(cmd); err != nil {
			t.Fatalf("Add(%q): %v", cmd, err)
		}
	}

	got, err := s.Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	want := []string{"q", "lua print(1)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Last mismatch (-want +got):\n%s", diff)
	}
}

func TestAddCollapsesConsecutiveDuplicates(t *testing.T) {
	s := openTestStore(t)

	a, _ := s.Add("w")
	b, _ := s.Add("w")
	if a != b {
		t.Errorf("duplicate got new seq %d, want %d", b, a)
	}

	got, _ := s.Last(10)
	if len(got) != 1 {
		t.Errorf("Last = %v, want single entry", got)
	}
}

func TestBeforeAfterWalk(t *testing.T) {
	s := openTestStore(t)
	s.Add("first")
	s.Add("second")
	s.Add("third")

	// Walk backwards from the end.
	cmd, seq, err := s.Before(0)
	if err != nil || cmd != "third" {
		t.Fatalf("Before(0) = (%q, %v), want third", cmd, err)
	}
	cmd, seq, err = s.Before(seq)
	if err != nil || cmd != "second" {
		t.Fatalf("Before = (%q, %v), want second", cmd, err)
	}

	// And forwards again.
	cmd, _, err = s.After(seq)
	if err != nil || cmd != "third" {
		t.Fatalf("After = (%q, %v), want third", cmd, err)
	}
}

func TestBeforeEmptyStore(t *testing.T) {
	s := openTestStore(t)
	if _, _, err := s.Before(0); err != ErrNoEntry {
		t.Errorf("Before on empty store = %v, want ErrNoEntry", err)
	}
}

func TestAfterAtEnd(t *testing.T) {
	s := openTestStore(t)
	seq, _ := s.Add("only")
	if _, _, err := s.After(seq); err != ErrNoEntry {
		t.Errorf("After(last) = %v, want ErrNoEntry", err)
	}
}

func TestLastZero(t *testing.T) {
	s := openTestStore(t)
	s.Add("x")
	if got, err := s.Last(0); err != nil || got != nil {
		t.Errorf("Last(0) = (%v, %v), want (nil, nil)", got, err)
	}
}
