// Package clitest builds command contexts over temporary SQLite stores for command tests.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/config"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/service"
	"github.com/julianstephens/habitpal/internal/storage/sqlite"
)

// Start is the clock's initial time, a Wednesday morning.
var Start = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

type Env struct {
	Ctx *cli.Context
	Out *bytes.Buffer

	t   testing.TB
	mu  sync.Mutex
	now time.Time
}

// New returns an environment whose store file does not exist yet.
func New(t testing.TB) *Env {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Database = filepath.Join(dir, "habitpal.db")

	store := sqlite.NewStore(cfg.Database)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	env := &Env{t: t, now: Start, Out: &bytes.Buffer{}}
	env.Ctx = &cli.Context{
		Ctx:     context.Background(),
		Config:  cfg,
		Store:   store,
		Service: service.New(store, cfg.Store, service.WithClock(env.Now)),
		Out:     env.Out,
	}
	return env
}

// Ready returns an environment with an initialized store.
func Ready(t testing.TB) *Env {
	t.Helper()
	env := New(t)
	if err := env.Ctx.Store.Init(env.Ctx.Context()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return env
}

func (e *Env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *Env) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// Signup creates an account and selects it as --account.
func (e *Env) Signup(name string) models.Account {
	e.t.Helper()
	account, err := e.Ctx.Service.CreateAccount(e.Ctx.Context(), service.CreateAccountInput{Name: name})
	if err != nil {
		e.t.Fatalf("CreateAccount(%q) failed: %v", name, err)
	}
	e.Ctx.Account = name
	return account
}

// Output returns and clears what commands printed.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}
