package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/seckatie/marktube/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "marktube", "marktube.db")
	if cfg.Database.Path != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Database.Path, wantDB)
	}
	if cfg.LockPath() != wantDB+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Addr() != "127.0.0.1:8787" {
		t.Fatalf("unexpected addr: %q", cfg.Addr())
	}
	if cfg.Overlay.RetryInterval() != time.Second {
		t.Fatalf("unexpected retry interval: %v", cfg.Overlay.RetryInterval())
	}
	if cfg.Overlay.MaxAttempts != 30 {
		t.Fatalf("unexpected max attempts: %d", cfg.Overlay.MaxAttempts)
	}
	if cfg.Overlay.NotificationDuration() != 3*time.Second {
		t.Fatalf("unexpected notification duration: %v", cfg.Overlay.NotificationDuration())
	}
	if cfg.Manager.ExportTTL() != 2*time.Minute {
		t.Fatalf("unexpected export ttl: %v", cfg.Manager.ExportTTL())
	}
	if cfg.Browser.Headless {
		t.Fatal("expected a visible browser by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 9000

[overlay]
max_attempts = 5

[logging]
level = "DEBUG"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Overlay.MaxAttempts != 5 {
		t.Fatalf("expected max attempts from file, got %d", cfg.Overlay.MaxAttempts)
	}
	if cfg.Overlay.RetryIntervalMS != 1000 {
		t.Fatalf("expected default retry interval to survive, got %d", cfg.Overlay.RetryIntervalMS)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", cfg.Logging.Level)
	}
	if cfg.ManagerURL() != "http://localhost:9000" {
		t.Fatalf("unexpected manager url: %q", cfg.ManagerURL())
	}

	t.Setenv("MARKTUBE_PORT", "9100")
	t.Setenv("MARKTUBE_HEADLESS", "true")
	t.Setenv("MARKTUBE_DB", ":memory:")

	cfg, _, _, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected env port, got %d", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Fatal("expected env to enable headless")
	}
	if cfg.Database.Path != ":memory:" {
		t.Fatalf("expected in-memory database to pass through, got %q", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "unknown field", body: "[server]\nbogus = 1\n", want: "parse config"},
		{name: "port out of range", body: "[server]\nport = 70000\n", want: "server.port"},
		{name: "no attempts", body: "[overlay]\nmax_attempts = 0\n", want: "overlay.max_attempts"},
		{name: "zero interval", body: "[overlay]\nretry_interval_ms = 0\n", want: "overlay.retry_interval_ms"},
		{name: "bad level", body: "[logging]\nlevel = \"chatty\"\n", want: "logging.level"},
		{name: "relative start url", body: "[browser]\nstart_url = \"youtube.com\"\n", want: "browser.start_url"},
		{name: "bad env port", env: map[string]string{"MARKTUBE_PORT": "eighty"}, want: "MARKTUBE_PORT"},
		{name: "bad env headless", env: map[string]string{"MARKTUBE_HEADLESS": "maybe"}, want: "MARKTUBE_HEADLESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}

	def, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if *cfg != *def {
		t.Fatalf("sample config drifted from defaults:\n got %+v\nwant %+v", *cfg, *def)
	}
}
