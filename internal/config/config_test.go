package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/taskpilot.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskpilot.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 8000\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "taskpilot.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "taskpilot.yaml")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskpilot.yaml")
	content := `
listen:
  port: 9001
gateway:
  api_key: test-key
  model: gpt-4o
agent:
  max_iterations: 3
data_dir: /tmp/taskpilot
log_level: debug
`
	os.WriteFile(path, []byte(content), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Listen.Port != 9001 {
		t.Errorf("Listen.Port = %d, want 9001", cfg.Listen.Port)
	}
	if cfg.Gateway.APIKey != "test-key" {
		t.Errorf("Gateway.APIKey = %q, want %q", cfg.Gateway.APIKey, "test-key")
	}
	if cfg.Gateway.Model != "gpt-4o" {
		t.Errorf("Gateway.Model = %q, want %q", cfg.Gateway.Model, "gpt-4o")
	}
	if cfg.Agent.MaxIterations != 3 {
		t.Errorf("Agent.MaxIterations = %d, want 3", cfg.Agent.MaxIterations)
	}
	if cfg.DataDir != "/tmp/taskpilot" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/taskpilot")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TASKPILOT_TEST_KEY", "secret-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "taskpilot.yaml")
	os.WriteFile(path, []byte("gateway:\n  api_key: ${TASKPILOT_TEST_KEY}\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Gateway.APIKey != "secret-from-env" {
		t.Errorf("Gateway.APIKey = %q, want env-expanded value", cfg.Gateway.APIKey)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskpilot.yaml")
	os.WriteFile(path, []byte("log_level: warn\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Listen.Port != 8000 {
		t.Errorf("Listen.Port = %d, want default 8000", cfg.Listen.Port)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("Agent.MaxIterations = %d, want default 10", cfg.Agent.MaxIterations)
	}
	if cfg.Gateway.Model != "gpt-4o-mini" {
		t.Errorf("Gateway.Model = %q, want default gpt-4o-mini", cfg.Gateway.Model)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/taskpilot"}
	if got := cfg.DatabasePath(); got != "/var/lib/taskpilot/tasks.db" {
		t.Errorf("DatabasePath() = %q", got)
	}

	empty := &Config{}
	if got := empty.DatabasePath(); got != "tasks.db" {
		t.Errorf("DatabasePath() with empty DataDir = %q, want tasks.db", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"  debug  ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tc := range cases {
		got, err := ParseLogLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLogLevel(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
