package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", c.Server.Port)
	}
	if c.Status.CacheTTL != 30*time.Second {
		t.Errorf("Status.CacheTTL = %v, want 30s", c.Status.CacheTTL)
	}
	if c.Reconcile.CronTimezone != "Europe/Lisbon" {
		t.Errorf("Reconcile.CronTimezone = %q, want Europe/Lisbon", c.Reconcile.CronTimezone)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want default 4000", c.Server.Port)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	c := DefaultConfig()
	c.Server.Port = 9999
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("loaded.Server.Port = %d, want 9999", loaded.Server.Port)
	}
}

func TestEnvOverridesTakePrecedence(t *testing.T) {
	os.Setenv("STATUS_PORT", "5001")
	defer os.Unsetenv("STATUS_PORT")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 5001 {
		t.Errorf("Server.Port = %d, want 5001 from env override", c.Server.Port)
	}
}
