package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != DefaultTheme {
		t.Errorf("theme = %q, want %q", cfg.Theme, DefaultTheme)
	}
	if cfg.ReplyDelayMS != DefaultReplyDelayMS {
		t.Errorf("reply delay = %d, want %d", cfg.ReplyDelayMS, DefaultReplyDelayMS)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Config{Theme: "dark", ReplyDelayMS: 250, LogFile: "/tmp/chatdeck.log"}

	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestLoadNormalizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: mauve\nreply_delay_ms: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != DefaultTheme {
		t.Errorf("unknown theme not normalized: %q", cfg.Theme)
	}
	if cfg.ReplyDelayMS != DefaultReplyDelayMS {
		t.Errorf("negative delay not normalized: %d", cfg.ReplyDelayMS)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(": not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: light\nreply_delay_ms: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHATDECK_THEME", "dark")
	t.Setenv("CHATDECK_REPLY_DELAY_MS", "42")
	t.Setenv("CHATDECK_LOG_FILE", "/tmp/cd.log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Errorf("env theme override lost: %q", cfg.Theme)
	}
	if cfg.ReplyDelayMS != 42 {
		t.Errorf("env delay override lost: %d", cfg.ReplyDelayMS)
	}
	if cfg.LogFile != "/tmp/cd.log" {
		t.Errorf("env log file override lost: %q", cfg.LogFile)
	}
}

func TestEnvOverrideIgnoresUnparsableDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("reply_delay_ms: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATDECK_REPLY_DELAY_MS", "soon")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReplyDelayMS != 300 {
		t.Errorf("delay = %d, want 300", cfg.ReplyDelayMS)
	}
}

func TestReplyDelay(t *testing.T) {
	cfg := Config{ReplyDelayMS: 1500}
	if got := cfg.ReplyDelay(); got != 1500*time.Millisecond {
		t.Errorf("ReplyDelay = %v", got)
	}
}
