package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mayvqt/StatusBot/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statusbot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesEntitiesInOrder(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
poll_interval: 30s
webhook_url: "https://example.com/hook"
entities:
  - name: MainSite
    kind: HTTP
    target: https://example.com
  - name: DB
    kind: tcp
    target: db.internal:5432
  - name: Router
    kind: icmp
    target: 192.168.1.1
`)

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.PollInterval != 30*time.Second {
		t.Fatalf("addr/interval wrong: %+v", cfg)
	}

	ents := cfg.Targets()
	if len(ents) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(ents))
	}
	// file order preserved, kind lowercased
	if ents[0].Name != "MainSite" || ents[0].Kind != domain.KindHTTP {
		t.Fatalf("unexpected first entity: %+v", ents[0])
	}
	if ents[1].Kind != domain.KindTCP || ents[2].Kind != domain.KindICMP {
		t.Fatalf("kinds wrong: %+v", ents)
	}
}

func TestLoad_DefaultsAndFloors(t *testing.T) {
	path := writeConfig(t, "poll_interval: 1s\n")

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != MinPollInterval {
		t.Fatalf("expected poll interval floored to %v, got %v", MinPollInterval, cfg.PollInterval)
	}
	if cfg.Addr != "127.0.0.1:8080" || cfg.StatePath != "state/status.json" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.NotifyBurst != 5 || cfg.NotifyWindow != 5*time.Second {
		t.Fatalf("notify defaults wrong: %+v", cfg)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if len(cfg.Entities) != 0 {
		t.Fatalf("expected no entities, got %+v", cfg.Entities)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STATUSBOT_ADDR", ":7070")
	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("env override ignored: %+v", cfg)
	}
}
