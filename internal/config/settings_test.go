package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_Valid(t *testing.T) {
	content := `
listen: 127.0.0.1:9000
format: json
strict: true
watch_debounce: 1s
history:
  enabled: true
  path: /tmp/tg.db
  retain: 10
`
	path := writeTemp(t, content)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.Listen != "127.0.0.1:9000" {
		t.Errorf("listen: got %q", s.Listen)
	}
	if s.Format != "json" {
		t.Errorf("format: got %q, want json", s.Format)
	}
	if !s.Strict {
		t.Error("strict: got false, want true")
	}
	if s.WatchDebounce != time.Second {
		t.Errorf("watch_debounce: got %v, want 1s", s.WatchDebounce)
	}
	if !s.History.Enabled || s.History.Path != "/tmp/tg.db" || s.History.Retain != 10 {
		t.Errorf("history: got %+v", s.History)
	}
}

func TestLoadSettings_Partial(t *testing.T) {
	path := writeTemp(t, `format: sarif`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	d := Defaults()
	if s.Format != "sarif" {
		t.Errorf("format: got %q, want sarif", s.Format)
	}
	if s.Listen != d.Listen {
		t.Errorf("listen: got %q, want default %q", s.Listen, d.Listen)
	}
	if s.MaxBodyBytes != d.MaxBodyBytes {
		t.Errorf("max_body_bytes: got %d, want %d", s.MaxBodyBytes, d.MaxBodyBytes)
	}
	if s.History.Path != d.History.Path {
		t.Errorf("history.path: got %q, want %q", s.History.Path, d.History.Path)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s.Format != "text" {
		t.Errorf("expected default format, got %q", s.Format)
	}
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("TASKGRAPH_LISTEN", ":7070")
	t.Setenv("TASKGRAPH_HISTORY_ENABLED", "true")

	s, err := LoadSettings("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Listen != ":7070" {
		t.Errorf("listen: got %q, want :7070", s.Listen)
	}
	if !s.History.Enabled {
		t.Error("history.enabled: env override not applied")
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "format: [invalid\n")
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadSettings_UnknownFormat(t *testing.T) {
	path := writeTemp(t, "format: xml\n")
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".taskgraph.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
