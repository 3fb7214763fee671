package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/nib/internal/fetch"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.RateLimit != fetch.DefaultRateLimit {
		t.Errorf("RateLimit = %d, want default %d", cfg.Fetch.RateLimit, fetch.DefaultRateLimit)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[fetch]
rate_limit = 120

[log]
level = "debug"
file = "/tmp/nib-test.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.RateLimit != 120 {
		t.Errorf("RateLimit = %d, want 120", cfg.Fetch.RateLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Editor.ScriptDir == "" {
		t.Error("ScriptDir default lost")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative rate limit", "[fetch]\nrate_limit = -1\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"malformed toml", "[fetch\nrate_limit = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestWatcherSignalsOnWrite(t *testing.T) {
	path := writeConfig(t, "[fetch]\nrate_limit = 10\n")
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[fetch]\nrate_limit = 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal within 5s")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
		t.Error("signal for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
