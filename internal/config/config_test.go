package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "habitpal.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != Default().Server.Listen {
		t.Errorf("Listen = %q, want default", cfg.Server.Listen)
	}
	if len(cfg.Store) != len(DefaultCatalog()) {
		t.Errorf("Store has %d items, want %d", len(cfg.Store), len(DefaultCatalog()))
	}
	if strings.HasPrefix(cfg.Database, "~") {
		t.Errorf("Database path was not expanded: %s", cfg.Database)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/pets.db
timezone: "+02:00"
server:
  listen: ":9000"
  read_timeout: 3s
store:
  - name: carrot
    price: 5
`)
	t.Setenv("HABITPAL_LISTEN", ":9100")
	t.Setenv("HABITPAL_DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database != "/tmp/pets.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Server.Listen != ":9100" {
		t.Errorf("Listen = %q, want env override :9100", cfg.Server.Listen)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != Default().Server.WriteTimeout {
		t.Errorf("WriteTimeout = %v, want default kept", cfg.Server.WriteTimeout)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want env override true")
	}
	item, ok := cfg.Food("carrot")
	if !ok || item.Price != 5 {
		t.Errorf("Food(carrot) = %+v, %v", item, ok)
	}
	if _, ok := cfg.Food("cake"); ok {
		t.Error("configured store should replace the default catalog")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: "colour: blue\n"},
		{name: "local timezone", body: "timezone: Local\n"},
		{name: "free food", body: "store:\n  - name: apple\n    price: 0\n"},
		{name: "duplicate food", body: "store:\n  - name: apple\n    price: 1\n  - name: apple\n    price: 2\n"},
		{name: "zero timeout", body: "server:\n  write_timeout: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("Load() succeeded for %s", tt.name)
			}
		})
	}
}

func TestLoadRejectsBadDebugEnv(t *testing.T) {
	t.Setenv("HABITPAL_DEBUG", "sometimes")
	if _, err := Load(""); err == nil {
		t.Error("Load() accepted HABITPAL_DEBUG=sometimes")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x/y.db"); got != filepath.Join(home, "x/y.db") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome() changed absolute path: %q", got)
	}
}
