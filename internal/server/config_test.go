package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultServerConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultServerConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Game.CallIntervalMs != 3000 {
		t.Errorf("Expected default call interval 3000ms, got %d", cfg.Game.CallIntervalMs)
	}
	if cfg.Game.MinPlayers != 1 {
		t.Errorf("Expected default min players 1, got %d", cfg.Game.MinPlayers)
	}
	if got := cfg.Game.CallInterval(); got != 3*time.Second {
		t.Errorf("Expected call interval 3s, got %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
	if cfg.GetServerAddress() != "localhost:8000" {
		t.Errorf("Unexpected server address %q", cfg.GetServerAddress())
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	if err != nil {
		t.Fatalf("Missing file should yield defaults, got error %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", cfg.Server.Port)
	}
}

func TestLoadServerConfigFromHCL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  address = "0.0.0.0"
  port    = 9000
}

game {
  call_interval_ms = 1500
  derash_percent   = 10
  stakes           = [25, 75]
}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("Unexpected server settings: %+v", cfg.Server)
	}
	if cfg.Game.CallInterval() != 1500*time.Millisecond {
		t.Errorf("Expected 1500ms interval, got %v", cfg.Game.CallInterval())
	}
	if cfg.Game.DerashPercent != 10 {
		t.Errorf("Expected derash percent 10, got %d", cfg.Game.DerashPercent)
	}
	if len(cfg.Game.Stakes) != 2 || cfg.Game.Stakes[0] != 25 {
		t.Errorf("Unexpected stakes: %v", cfg.Game.Stakes)
	}

	// Omitted values fall back to defaults
	if cfg.Server.LogLevel != "info" {
		t.Errorf("Expected default log level, got %q", cfg.Server.LogLevel)
	}
	if cfg.Game.MinPlayers != 1 {
		t.Errorf("Expected default min players, got %d", cfg.Game.MinPlayers)
	}
}

func TestLoadServerConfigInvalidHCL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.hcl")
	if err := os.WriteFile(path, []byte("server {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadServerConfig(path); err == nil {
		t.Error("Expected parse error for malformed HCL")
	}
}

func TestServerConfigValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"port too low", func(c *ServerConfig) { c.Server.Port = 0 }},
		{"port too high", func(c *ServerConfig) { c.Server.Port = 70000 }},
		{"negative interval", func(c *ServerConfig) { c.Game.CallIntervalMs = -1 }},
		{"zero min players", func(c *ServerConfig) { c.Game.MinPlayers = 0 }},
		{"derash over 100", func(c *ServerConfig) { c.Game.DerashPercent = 101 }},
		{"non-positive stake", func(c *ServerConfig) { c.Game.Stakes = []int{10, 0} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestStakeAllowed(t *testing.T) {
	t.Parallel()
	game := GameSettings{Stakes: []int{10, 20, 50, 100}}

	if !game.StakeAllowed(20) {
		t.Error("Expected preset stake to be allowed")
	}
	if game.StakeAllowed(15) {
		t.Error("Expected off-preset stake to be rejected")
	}
	if game.StakeAllowed(0) {
		t.Error("Expected zero stake to be rejected")
	}

	open := GameSettings{}
	if !open.StakeAllowed(7) {
		t.Error("Empty preset list should allow any positive stake")
	}
	if open.StakeAllowed(-3) {
		t.Error("Negative stake should always be rejected")
	}
}
