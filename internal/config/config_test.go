package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Listen != ":8000" || cfg.Server.BasePath != "/ppp" {
		t.Fatalf("bad server defaults: %+v", cfg.Server)
	}
	if cfg.PPPD.Binary != "pppd" {
		t.Fatalf("bad pppd default binary: %q", cfg.PPPD.Binary)
	}
	if cfg.PPPD.GracePeriod != 3*time.Second || cfg.PPPD.ConfirmWindow != 2*time.Second {
		t.Fatalf("bad pppd timing defaults: %+v", cfg.PPPD)
	}
	if cfg.Settings.Path != "/app/settings/ppplink-settings.json" {
		t.Fatalf("bad settings path default: %q", cfg.Settings.Path)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics should default to disabled")
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[server]
listen = ":9100"
base_path = "/link"

[pppd]
binary = "/usr/sbin/pppd"
grace_period = "5s"

[settings]
path = "/tmp/settings.json"

[metrics]
enabled = true
listen = ":9191"

[history]
dsn = "sqlite:///tmp/history.db"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Listen != ":9100" || cfg.Server.BasePath != "/link" {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	if cfg.PPPD.Binary != "/usr/sbin/pppd" || cfg.PPPD.GracePeriod != 5*time.Second {
		t.Fatalf("pppd section not applied: %+v", cfg.PPPD)
	}
	// Unset keys keep their defaults.
	if cfg.PPPD.ConfirmWindow != 2*time.Second {
		t.Fatalf("confirm_window default lost: %v", cfg.PPPD.ConfirmWindow)
	}
	if cfg.Settings.Path != "/tmp/settings.json" {
		t.Fatalf("settings path not applied: %q", cfg.Settings.Path)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":9191" {
		t.Fatalf("metrics section not applied: %+v", cfg.Metrics)
	}
	if cfg.History.DSN != "sqlite:///tmp/history.db" {
		t.Fatalf("history dsn not applied: %q", cfg.History.DSN)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
