package server

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the round parameters applied to every session
type GameSettings struct {
	CallIntervalMs int   `hcl:"call_interval_ms,optional"`
	MinPlayers     int   `hcl:"min_players,optional"`
	DerashPercent  int   `hcl:"derash_percent,optional"`
	Bonus          int   `hcl:"bonus,optional"`
	Stakes         []int `hcl:"stakes,optional"`
}

// CallInterval returns the configured gap between number calls
func (g GameSettings) CallInterval() time.Duration {
	return time.Duration(g.CallIntervalMs) * time.Millisecond
}

// StakeAllowed reports whether the stake matches a configured preset. An
// empty preset list allows any positive stake.
func (g GameSettings) StakeAllowed(stake int) bool {
	if stake <= 0 {
		return false
	}
	if len(g.Stakes) == 0 {
		return true
	}
	return slices.Contains(g.Stakes, stake)
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8000,
			LogLevel: "info",
		},
		Game: GameSettings{
			CallIntervalMs: 3000,
			MinPlayers:     1,
			DerashPercent:  0,
			Bonus:          0,
			Stakes:         []int{10, 20, 50, 100},
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.CallIntervalMs == 0 {
		config.Game.CallIntervalMs = defaults.Game.CallIntervalMs
	}
	if config.Game.MinPlayers == 0 {
		config.Game.MinPlayers = defaults.Game.MinPlayers
	}
	if len(config.Game.Stakes) == 0 {
		config.Game.Stakes = defaults.Game.Stakes
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.CallIntervalMs < 0 {
		return fmt.Errorf("call interval must not be negative: %d", c.Game.CallIntervalMs)
	}
	if c.Game.MinPlayers < 1 {
		return fmt.Errorf("min players must be at least 1: %d", c.Game.MinPlayers)
	}
	if c.Game.DerashPercent < 0 || c.Game.DerashPercent > 100 {
		return fmt.Errorf("derash percent must be within [0,100]: %d", c.Game.DerashPercent)
	}
	for _, stake := range c.Game.Stakes {
		if stake <= 0 {
			return fmt.Errorf("stake preset must be positive: %d", stake)
		}
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
