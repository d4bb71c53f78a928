package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"discord": {"token": "x"}}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Roles.Admin != "Admin" || cfg.Roles.Russian != "Russian" {
		t.Fatalf("role defaults not applied: %+v", cfg.Roles)
	}
	if cfg.Tickets.Cooldown() != 5*time.Second {
		t.Fatalf("ticket cooldown = %v", cfg.Tickets.Cooldown())
	}
	if cfg.Tickets.Pacing() != 100*time.Millisecond {
		t.Fatalf("pacing = %v", cfg.Tickets.Pacing())
	}
	if cfg.Tickets.ArchiveDelay() != 5*time.Second {
		t.Fatalf("archive delay = %v", cfg.Tickets.ArchiveDelay())
	}
	if cfg.Stats.Interval() != 10*time.Second {
		t.Fatalf("stats interval = %v", cfg.Stats.Interval())
	}
	if cfg.Language.MessagesFile != "lang.yml" {
		t.Fatalf("messages file = %q", cfg.Language.MessagesFile)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLite.Path != "data/bot.db" {
		t.Fatalf("database defaults not applied: %+v", cfg.Database)
	}
	if cfg.Tickets.SharedRegistry {
		t.Fatal("shared registry should default to off")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
		"roles": {"admin": "Staff"},
		"tickets": {"cooldown_seconds": 30, "shared_registry": true},
		"database": {"driver": "mongodb"}
	}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Roles.Admin != "Staff" {
		t.Fatalf("admin role = %q", cfg.Roles.Admin)
	}
	if cfg.Tickets.Cooldown() != 30*time.Second {
		t.Fatalf("cooldown = %v", cfg.Tickets.Cooldown())
	}
	if !cfg.Tickets.SharedRegistry {
		t.Fatal("shared registry override lost")
	}
	if cfg.Database.Driver != "mongodb" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
}

func TestStructureTables(t *testing.T) {
	en := EnglishStructure()
	ru := RussianStructure()
	if len(en) != len(ru) {
		t.Fatalf("structure mismatch: %d en vs %d ru categories", len(en), len(ru))
	}
	for i := range en {
		if len(en[i].Channels) != len(ru[i].Channels) {
			t.Fatalf("category %d: %d en vs %d ru channels", i, len(en[i].Channels), len(ru[i].Channels))
		}
	}

	cats := AllCategories()
	if len(cats) != len(en)+len(ru)+2 {
		t.Fatalf("AllCategories = %d entries", len(cats))
	}
}
