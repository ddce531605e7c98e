package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitpal/internal/backup"
	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/service"
	"github.com/julianstephens/habitpal/internal/storage"
	"github.com/julianstephens/habitpal/internal/storage/sqlite"
)

// ErrNoAccount is returned by commands that act for an account when none was selected.
var ErrNoAccount = errors.New("no account selected, pass --account or set HABITPAL_ACCOUNT")

type Context struct {
	Ctx     context.Context
	Config  config.Config
	Store   storage.Provider
	Service *service.Service
	// Account is the account name chosen with --account.
	Account string
	// Out receives command output, os.Stdout when nil.
	Out io.Writer
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// CurrentAccount resolves the --account name.
func (c *Context) CurrentAccount() (models.Account, error) {
	if strings.TrimSpace(c.Account) == "" {
		return models.Account{}, ErrNoAccount
	}
	return c.Service.AccountByName(c.Context(), c.Account)
}

// SQLitePath returns the database file when the store is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		return "", false
	}
	return store.GetConfigPath(), true
}

// PerformAutomaticBackup snapshots a SQLite database before a destructive command.
// Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	path, ok := c.SQLitePath()
	if !ok {
		return
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ConfirmFunc asks a yes/no question. Tests replace it.
var ConfirmFunc = func(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// ParseFrequency parses "daily" or a comma-separated list of weekdays such as "mon,wed,fri".
// Numbers 0 (Sunday) through 6 (Saturday) are accepted too.
func ParseFrequency(s string) (progress.FrequencyPolicy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "daily" {
		return progress.Daily(), nil
	}

	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) == 1 && part[0] >= '0' && part[0] <= '6' {
			weekdays = append(weekdays, time.Weekday(part[0]-'0'))
			continue
		}
		wd, err := progress.ParseWeekday(part)
		if err != nil {
			return progress.FrequencyPolicy{}, err
		}
		weekdays = append(weekdays, wd)
	}
	if len(weekdays) == 0 {
		return progress.FrequencyPolicy{}, fmt.Errorf("no weekdays in %q", s)
	}
	return progress.Custom(weekdays...), nil
}
