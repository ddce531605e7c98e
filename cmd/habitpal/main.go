package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/cli/accounts"
	"github.com/julianstephens/habitpal/internal/cli/backups"
	"github.com/julianstephens/habitpal/internal/cli/goals"
	"github.com/julianstephens/habitpal/internal/cli/pets"
	"github.com/julianstephens/habitpal/internal/cli/system"
	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/constants"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/keyring"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/service"
	"github.com/julianstephens/habitpal/internal/storage"
	"github.com/julianstephens/habitpal/internal/storage/backend"
)

var CLI struct {
	Version     kong.VersionFlag
	Config      string `help:"YAML config file." type:"path" default:"~/.config/habitpal/habitpal.yaml" env:"HABITPAL_CONFIG"`
	DB          string `name:"db" help:"SQLite path, PostgreSQL or MongoDB connection string. Credentials must NOT be embedded here, use the OS keyring, the environment or .pgpass instead."`
	AccountName string `name:"account" short:"a" help:"Account to act as." env:"HABITPAL_ACCOUNT"`
	Debug       bool   `help:"Write debug logs to stderr too."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitpal storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the JSON API server."`
	Account struct {
		Create accounts.AccountCreateCmd `cmd:"" help:"Create an account and print its API token."`
		Show   accounts.AccountShowCmd   `cmd:"" help:"Show the selected account." default:"1"`
	} `cmd:"" help:"Manage accounts."`
	Goal goals.GoalCmd `cmd:"" help:"Manage goals and track completions."`
	Pet  struct {
		Status pets.PetStatusCmd `cmd:"" help:"Show the pet's hunger and mood." default:"1"`
		Feed   pets.PetFeedCmd   `cmd:"" help:"Feed the pet from the inventory."`
	} `cmd:"" help:"Look after your pet."`
	Store struct {
		List pets.StoreListCmd `cmd:"" help:"List food for sale." default:"1"`
		Buy  pets.StoreBuyCmd  `cmd:"" help:"Buy food with coins."`
	} `cmd:"" help:"Spend coins on pet food."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a database connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with its password hidden."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`
}

// noLoad lists commands that open storage themselves, or not at all.
var noLoad = map[string]bool{
	"init":           true,
	"migrate":        true,
	"doctor":         true,
	"keyring":        true,
	"backup restore": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, coins and a pet to feed"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperr.Fatal(err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	command := commandPath(kctx.Command())
	if err := logger.Init(logger.Config{
		Debug:   cfg.Debug,
		DataDir: cfg.DataDir,
		JSON:    command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	database, err := resolveDatabase(cfg)
	if err != nil {
		apperr.Fatal(err)
	}
	store, err := backend.Open(database)
	if err != nil {
		apperr.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if !skipLoad(command) {
		if err := store.Load(ctx); err != nil {
			stop()
			apperr.Fatal(err)
		}
	}

	appCtx := &cli.Context{
		Ctx:     ctx,
		Config:  cfg,
		Store:   store,
		Service: service.New(store, cfg.Store),
		Account: CLI.AccountName,
	}

	err = kctx.Run(appCtx)
	stop()
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close storage", "error", closeErr)
	}
	if err != nil {
		apperr.Fatal(err)
	}
}

// commandPath drops the argument placeholders from a kong command, "goal add <title>"
// becomes "goal add".
func commandPath(command string) string {
	var words []string
	for _, w := range strings.Fields(command) {
		if strings.HasPrefix(w, "<") {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func skipLoad(command string) bool {
	if noLoad[command] {
		return true
	}
	first, _, _ := strings.Cut(command, " ")
	return noLoad[first]
}

// resolveDatabase picks the database: --db, then the config file and HABITPAL_DATABASE, then
// a connection string stored in the OS keyring when the config still names the default file.
func resolveDatabase(cfg config.Config) (string, error) {
	if CLI.DB != "" {
		if storage.HasEmbeddedCredentials(CLI.DB) {
			return "", errors.New("connection strings with embedded credentials are NOT allowed on the command line, " +
				"store them with 'habitpal keyring set', export HABITPAL_DATABASE, or use .pgpass")
		}
		return CLI.DB, nil
	}

	if cfg.Database == config.ExpandHome(constants.DefaultDBPath) {
		connStr, err := keyring.GetConnectionString()
		switch {
		case err == nil:
			logger.Debug("Using database from OS keyring", "database", storage.Redact(connStr))
			return connStr, nil
		case !errors.Is(err, keyring.ErrNotFound):
			logger.Debug("OS keyring lookup failed", "error", err)
		}
	}
	return cfg.Database, nil
}
