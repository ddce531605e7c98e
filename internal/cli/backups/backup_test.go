package backups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/cli/clitest"
	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/service"
	"github.com/julianstephens/habitpal/internal/storage/postgres"
)

func TestBackupCreateAndList(t *testing.T) {
	env := clitest.Ready(t)

	require.NoError(t, (&BackupListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "No backups found.")

	require.NoError(t, (&BackupCreateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Backup created: habitpal-")

	require.NoError(t, (&BackupListCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "Available backups (1 total, keeping most recent 14)")
}

func TestBackupRestore(t *testing.T) {
	env := clitest.Ready(t)
	env.Signup("ana")

	require.NoError(t, (&BackupCreateCmd{}).Run(env.Ctx))
	entries, err := os.ReadDir(filepath.Join(filepath.Dir(env.Ctx.Store.GetConfigPath()), "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()

	env.Signup("ben")

	old := cli.ConfirmFunc
	t.Cleanup(func() { cli.ConfirmFunc = old })
	cli.ConfirmFunc = func(string, string) (bool, error) { return false, nil }

	require.NoError(t, (&BackupRestoreCmd{BackupFile: name}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Restore cancelled.")

	require.NoError(t, (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Database restored successfully!")

	// the restored file is opened again on the next load
	require.NoError(t, env.Ctx.Store.Load(env.Ctx.Context()))
	_, err = env.Ctx.Service.AccountByName(env.Ctx.Context(), "ana")
	assert.NoError(t, err)
	_, err = env.Ctx.Service.AccountByName(env.Ctx.Context(), "ben")
	assert.Error(t, err, "ben was created after the backup")
}

func TestBackupRestoreMissingFile(t *testing.T) {
	env := clitest.Ready(t)

	err := (&BackupRestoreCmd{BackupFile: "habitpal-nope.db", Yes: true}).Run(env.Ctx)
	assert.ErrorContains(t, err, "backup file not found")
}

func TestBackupsRequireSQLite(t *testing.T) {
	store := postgres.New("postgres://habitpal@localhost/habitpal")
	ctx := &cli.Context{Store: store, Service: service.New(store, config.DefaultCatalog())}

	assert.ErrorIs(t, (&BackupCreateCmd{}).Run(ctx), errNotSQLite)
	assert.ErrorIs(t, (&BackupListCmd{}).Run(ctx), errNotSQLite)
	assert.ErrorIs(t, (&BackupRestoreCmd{BackupFile: "x.db", Yes: true}).Run(ctx), errNotSQLite)
}
