package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "notifyd.yaml", `
logging:
  level: debug
  console: true
notify:
  actor_id: u-17
  min_interval: 500ms
  queue_size: 50
storage:
  driver: sqlite
  path: /tmp/notify.db
  retention:
    enabled: true
    schedule: "@daily"
    max_age: 168h
push:
  enabled: true
  token: secret
  chat_id: 12345
http:
  addr: 127.0.0.1:9000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Notify.ActorID != "u-17" || cfg.Notify.MinInterval != "500ms" || cfg.Notify.QueueSize != 50 {
		t.Fatalf("notify = %+v", cfg.Notify)
	}
	if cfg.Storage.Driver != "sqlite" || !cfg.Storage.Retention.Enabled || cfg.Storage.Retention.Schedule != "@daily" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if !cfg.Push.Enabled || cfg.Push.ChatID != 12345 {
		t.Fatalf("push = %+v", cfg.Push)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "notifyd.json", `{
  "logging": {"level": "info", "console": false},
  "notify": {"min_interval": "2s"},
  "storage": {"driver": "memory"}
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "memory" || cfg.Notify.MinInterval != "2s" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "notifyd.yaml", `
notify:
  min_intervall: 2s
storage:
  driver: memory
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a misspelled field")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "notifyd.json", `{"storage":{"driver":"memory"}}{"extra":1}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted trailing data")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "  ", want: 0},
		{raw: "500ms", want: 500 * time.Millisecond},
		{raw: "2s", want: 2 * time.Second},
		{raw: "-1s", wantErr: true},
		{raw: "fast", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDurationField("notify.min_interval", tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q) succeeded, want error", tt.raw)
			}
			if !strings.Contains(err.Error(), "notify.min_interval") {
				t.Fatalf("error %q does not name the field", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDurationField(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDurationField(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	got, err := ParseDurationOrDefault("storage.retention.max_age", "", 720*time.Hour)
	if err != nil || got != 720*time.Hour {
		t.Fatalf("default case = %v, %v", got, err)
	}
	got, err = ParseDurationOrDefault("storage.retention.max_age", "24h", 720*time.Hour)
	if err != nil || got != 24*time.Hour {
		t.Fatalf("explicit case = %v, %v", got, err)
	}
}
