// Package backend opens the storage provider named by a database setting.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/storage"
	"github.com/julianstephens/habitpal/internal/storage/mongo"
	"github.com/julianstephens/habitpal/internal/storage/postgres"
	"github.com/julianstephens/habitpal/internal/storage/sqlite"
)

// Open returns an unopened provider for database: a PostgreSQL URL or key/value DSN, a MongoDB
// URL, or a SQLite file path. Call Init or Load on the result before use.
func Open(database string) (storage.Provider, error) {
	switch storage.DetectKind(database) {
	case storage.KindPostgres:
		// Embedded passwords are refused earlier, on the command line only
		if err := postgres.ValidateConnString(database); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(database), nil
	case storage.KindMongo:
		return mongo.New(database), nil
	default:
		if database == "" {
			return nil, errors.New("database path is empty")
		}
		return sqlite.NewStore(config.ExpandHome(database)), nil
	}
}

// CopyStats counts what Copy wrote.
type CopyStats struct {
	Accounts int
	Goals    int
}

// Copy writes every account, with its pet, goals and history, from src into dst in one
// transaction on dst. Both providers must be loaded. Accounts already in dst fail the copy.
func Copy(ctx context.Context, src, dst storage.Provider) (CopyStats, error) {
	var stats CopyStats

	accounts, err := src.ListAccounts(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list source accounts: %w", err)
	}

	err = dst.Txn(ctx, func(r storage.Repo) error {
		stats = CopyStats{}
		for _, account := range accounts {
			pet, err := src.LoadPet(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("failed to load pet of %s: %w", account.Name, err)
			}
			goals, err := src.ListGoals(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("failed to list goals of %s: %w", account.Name, err)
			}

			if err := r.CreateAccount(ctx, account, pet); err != nil {
				return fmt.Errorf("failed to copy account %s: %w", account.Name, err)
			}
			for _, goal := range goals {
				if err := r.CreateGoal(ctx, goal); err != nil {
					return fmt.Errorf("failed to copy goal %s: %w", goal.ID, err)
				}
				stats.Goals++
			}
			stats.Accounts++
			logger.Debug("Copied account", "account", account.ID, "goals", len(goals))
		}
		return nil
	})
	if err != nil {
		return CopyStats{}, err
	}
	return stats, nil
}
