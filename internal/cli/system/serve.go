package system

import (
	"fmt"

	"github.com/julianstephens/habitpal/internal/api"
	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/lockfile"
	"github.com/julianstephens/habitpal/internal/logger"
)

type ServeCmd struct {
	Listen string `help:"Address to listen on, overrides the config file." placeholder:"HOST:PORT"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config.Server
	if cmd.Listen != "" {
		cfg.Listen = cmd.Listen
	}

	lock, err := lockfile.Acquire(lockfile.Path(ctx.Config.DataDir), cfg.Listen)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release server lock", "error", err)
		}
	}()

	ctx.Printf("Serving habitpal API on http://%s (Ctrl+C to stop)\n", cfg.Listen)
	if err := api.Serve(ctx.Context(), cfg, api.NewHandler(ctx.Service).Routes()); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	ctx.Println("Server stopped.")
	return nil
}
