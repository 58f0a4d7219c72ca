package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"

	"github.com/addisbingo/engine/cmd/addisbingo/shared"
	"github.com/addisbingo/engine/internal/bingo"
	"github.com/addisbingo/engine/internal/randutil"
	"github.com/addisbingo/engine/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Addr           string `kong:"help='Server address (overrides config)'"`
	Config         string `kong:"default='addisbingo.hcl',help='Path to HCL config file'"`
	Debug          bool   `kong:"help='Enable debug logging'"`
	CallIntervalMs int    `kong:"help='Gap between number calls in milliseconds (overrides config)'"`
	MinPlayers     int    `kong:"help='Players required before a round starts (overrides config)'"`
	Seed           *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.CallIntervalMs > 0 {
		cfg.Game.CallIntervalMs = c.CallIntervalMs
	}
	if c.MinPlayers > 0 {
		cfg.Game.MinPlayers = c.MinPlayers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}
	rng := randutil.New(seed)

	clock := quartz.NewReal()
	registry := bingo.NewRegistry(logger, rng, clock,
		bingo.WithRegistryCallInterval(cfg.Game.CallInterval()),
		bingo.WithRegistryDerashPercent(cfg.Game.DerashPercent),
		bingo.WithRegistryBonus(cfg.Game.Bonus),
	)

	srv := server.NewServer(logger)
	service := server.NewGameService(registry, srv, logger, clock, cfg.Game)
	srv.SetService(service)
	defer service.Stop()

	logger.Info("Starting bingo server",
		"address", addr,
		"call_interval", cfg.Game.CallInterval(),
		"min_players", cfg.Game.MinPlayers,
		"derash_percent", cfg.Game.DerashPercent,
		"stakes", cfg.Game.Stakes,
	)

	// Setup graceful shutdown
	ctx := shared.SetupSignalHandlerWithLogger(logger)

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown or error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
