package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitpal/internal/cli"
)

// migrator is implemented by the SQL stores.
type migrator interface {
	Migrate(logFn func(string)) (int, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		// MongoDB indexes and the schema marker are applied idempotently by Init
		if err := ctx.Store.Init(ctx.Context()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Database is up to date.")
		return nil
	}

	if path, ok := ctx.SQLitePath(); ok {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitpal init' first")
		}
		ctx.PerformAutomaticBackup()
	}

	count, err := m.Migrate(func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
