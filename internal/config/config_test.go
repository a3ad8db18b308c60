package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ParsesYAMLAndKeepsDefaultsForOmittedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redistill.yaml")
	yamlDoc := `
server:
  bind: "0.0.0.0"
  port: 7000
memory:
  max_memory: 1048576
  eviction_policy: allkeys-random
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != "0.0.0.0" || cfg.Server.Port != 7000 {
		t.Fatalf("server section not parsed: %+v", cfg.Server)
	}
	if cfg.Memory.MaxMemory != 1<<20 || cfg.Memory.EvictionPolicy != "allkeys-random" {
		t.Fatalf("memory section not parsed: %+v", cfg.Memory)
	}
	if cfg.Server.ConnectionTimeout != Default().Server.ConnectionTimeout {
		t.Fatalf("omitted field should keep the default, got %v", cfg.Server.ConnectionTimeout)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("REDIS_PORT", "6400")
	t.Setenv("REDIS_BIND", "10.0.0.1")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Security.Password != "s3cret" {
		t.Fatalf("password override not applied")
	}
	if cfg.Server.Port != 6400 {
		t.Fatalf("port override not applied")
	}
	if cfg.Server.Bind != "10.0.0.1" {
		t.Fatalf("bind override not applied")
	}
}

func TestApplyEnv_InvalidPortIsError(t *testing.T) {
	t.Setenv("REDIS_PORT", "not-a-number")
	cfg := Default()
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("expected error for malformed REDIS_PORT")
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	if got := ConfigPathFromEnv("/etc/redistill.yaml"); got != "/etc/redistill.yaml" {
		t.Fatalf("got %q, want fallback", got)
	}
	t.Setenv("REDISTILL_CONFIG", "/custom/path.yaml")
	if got := ConfigPathFromEnv("/etc/redistill.yaml"); got != "/custom/path.yaml" {
		t.Fatalf("got %q, want env override", got)
	}
}

func TestAddr(t *testing.T) {
	cfg := Config{Server: ServerConfig{Bind: "127.0.0.1", Port: 6379}}
	if got, want := cfg.Addr(), "127.0.0.1:6379"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
