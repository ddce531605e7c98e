package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/storage"
	"github.com/julianstephens/habitpal/internal/storage/backend"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing SQLite database before initialization."`
	Source string `help:"Database path or connection string to copy accounts, goals and pets from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dbPath, isSQLite := ctx.SQLitePath()

	if c.Force {
		if !isSQLite {
			return errors.New("--force only applies to SQLite databases")
		}
		if c.Source != "" && samePath(c.Source, dbPath) {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Context()); err != nil {
		return err
	}
	ctx.Printf("Initialized habitpal storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", storage.Redact(c.Source))
		if err := c.copyFrom(ctx); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
	}
	return nil
}

func (c *InitCmd) copyFrom(ctx *cli.Context) error {
	if storage.HasEmbeddedCredentials(c.Source) {
		return errors.New("source connection string contains embedded credentials, use the environment or .pgpass instead")
	}
	if dbPath, ok := ctx.SQLitePath(); ok && storage.DetectKind(c.Source) == storage.KindSQLite && samePath(c.Source, dbPath) {
		return errors.New("source and destination are the same database")
	}

	src, err := backend.Open(c.Source)
	if err != nil {
		return err
	}
	if err := src.Load(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	defer src.Close()

	stats, err := backend.Copy(ctx.Context(), src, ctx.Store)
	if err != nil {
		return err
	}
	ctx.Printf("Copied %d account(s) and %d goal(s).\n", stats.Accounts, stats.Goals)
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(config.ExpandHome(a))
	absB, errB := filepath.Abs(config.ExpandHome(b))
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
