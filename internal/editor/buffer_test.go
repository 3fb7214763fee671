package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBufferHasOneEmptyLine(t *testing.T) {
	b := New()
	if b.LineCount() != 1 {
		t.Errorf("LineCount = %d, want 1", b.LineCount())
	}
	if line, ok := b.Line(1); !ok || line != "" {
		t.Errorf("Line(1) = (%q, %v), want (\"\", true)", line, ok)
	}
	if b.Modified() {
		t.Error("new buffer marked modified")
	}
}

func TestInsertText(t *testing.T) {
	b := New()
	b.InsertText("hello")
	b.InsertText(" world")

	if line, _ := b.Line(1); line != "hello world" {
		t.Errorf("Line(1) = %q, want %q", line, "hello world")
	}
	if !b.Modified() {
		t.Error("buffer not marked modified after insert")
	}
	if _, col := b.Cursor(); col != len("hello world") {
		t.Errorf("col = %d, want %d", col, len("hello world"))
	}
}

func TestInsertMultilineText(t *testing.T) {
	b := New()
	b.InsertText("one")
	b.MoveLineStart()
	b.InsertText("a\nb\nc")

	var got []string
	for i := 1; i <= b.LineCount(); i++ {
		line, _ := b.Line(i)
		got = append(got, line)
	}
	want := []string{"a", "b", "cone"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNewlineSplitsLine(t *testing.T) {
	b := New()
	b.InsertText("ab")
	b.MoveCursor(0, -1)
	b.Newline()

	if b.LineCount() != 2 {
		t.Fatalf("LineCount = %d, want 2", b.LineCount())
	}
	l1, _ := b.Line(1)
	l2, _ := b.Line(2)
	if l1 != "a" || l2 != "b" {
		t.Errorf("lines = (%q, %q), want (a, b)", l1, l2)
	}
}

func TestBackspace(t *testing.T) {
	b := New()
	b.InsertText("ab")
	b.Backspace()
	if line, _ := b.Line(1); line != "a" {
		t.Errorf("Line(1) = %q, want a", line)
	}
}

func TestBackspaceJoinsLines(t *testing.T) {
	b := New()
	b.InsertText("ab\ncd")
	b.MoveLineStart()
	b.Backspace()

	if b.LineCount() != 1 {
		t.Fatalf("LineCount = %d, want 1", b.LineCount())
	}
	if line, _ := b.Line(1); line != "abcd" {
		t.Errorf("Line(1) = %q, want abcd", line)
	}
	if line, col := b.Cursor(); line != 0 || col != 2 {
		t.Errorf("cursor = (%d, %d), want (0, 2)", line, col)
	}
}

func TestBackspaceMultibyteRune(t *testing.T) {
	b := New()
	b.InsertText("aé")
	b.Backspace()
	if line, _ := b.Line(1); line != "a" {
		t.Errorf("Line(1) = %q, want a", line)
	}
}

func TestBackspaceAtOriginIsNoop(t *testing.T) {
	b := New()
	b.Backspace()
	if b.LineCount() != 1 || b.Modified() {
		t.Error("backspace at origin changed the buffer")
	}
}

func TestMoveCursorClamps(t *testing.T) {
	b := New()
	b.InsertText("short\nlonger line")

	b.MoveCursor(-10, 0)
	if line, _ := b.Cursor(); line != 0 {
		t.Errorf("line = %d, want 0", line)
	}
	b.MoveCursor(0, 100)
	if _, col := b.Cursor(); col != len("short") {
		t.Errorf("col = %d, want clamp to %d", col, len("short"))
	}
	b.MoveCursor(10, 0)
	if line, _ := b.Cursor(); line != 1 {
		t.Errorf("line = %d, want 1", line)
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.LineCount() != 2 {
		t.Fatalf("LineCount = %d, want 2", b.LineCount())
	}

	b.MoveLineEnd()
	b.InsertText("!")
	if err := b.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if b.Modified() {
		t.Error("Modified still true after Save")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "one!\ntwo\n" {
		t.Errorf("file = %q, want %q", data, "one!\ntwo\n")
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.txt")
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Filename() != path {
		t.Errorf("Filename = %q, want %q", b.Filename(), path)
	}
	if b.LineCount() != 1 {
		t.Errorf("LineCount = %d, want 1", b.LineCount())
	}
}

func TestSaveWithoutFilename(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save on scratch buffer succeeded, want error")
	}
}
