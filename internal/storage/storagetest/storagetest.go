// Package storagetest holds the behavior every storage.Provider must share. Backend packages
// run it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

var created = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// Run exercises p, which must be initialized and empty.
func Run(t *testing.T, p storage.Provider) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, p) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, p) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, p) })
	t.Run("History", func(t *testing.T) { testHistory(t, p) })
	t.Run("Pet", func(t *testing.T) { testPet(t, p) })
	t.Run("TxnRollback", func(t *testing.T) { testTxnRollback(t, p) })
	t.Run("ConcurrentToggles", func(t *testing.T) { testConcurrentToggles(t, p) })
}

func newAccount(t *testing.T, p storage.Provider, name string) models.Account {
	t.Helper()
	a := models.Account{
		ID:        "acct-" + name,
		Name:      name,
		Token:     "token-" + name,
		Timezone:  "UTC",
		CreatedAt: created,
	}
	pet := models.PetState{Name: "Mochi", LastFedAt: created}
	require.NoError(t, p.CreateAccount(context.Background(), a, pet))
	return a
}

func newGoal(t *testing.T, p storage.Provider, accountID, id string) models.Goal {
	t.Helper()
	g := models.Goal{
		ID:          id,
		AccountID:   accountID,
		Title:       "Read",
		Description: "Read 20 pages",
		Frequency:   progress.Custom(time.Monday, time.Wednesday),
		Plan:        []models.Step{{Description: "pick a book"}},
		History:     progress.NewHistory(),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, p.CreateGoal(context.Background(), g))
	return g
}

func testAccounts(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "ada")

	got, err := p.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Token, got.Token)
	assert.Equal(t, 0, got.Coins)
	assert.True(t, got.CreatedAt.Equal(created))

	byName, err := p.GetAccountByName(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)

	byToken, err := p.GetAccountByToken(ctx, a.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byToken.ID)

	_, err = p.GetAccountByToken(ctx, "bogus")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = p.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	accounts, err := p.ListAccounts(ctx)
	require.NoError(t, err)
	var names []string
	for _, acc := range accounts {
		names = append(names, acc.Name)
	}
	assert.Contains(t, names, "ada")
}

func testLedger(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "ledger")

	balance, err := p.ApplyDelta(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = p.ApplyDelta(ctx, a.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = p.ApplyDelta(ctx, a.ID, -10)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	got, err := p.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Coins, "rejected delta must not be written")

	_, err = p.ApplyDelta(ctx, "missing", 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func testGoals(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "goals")
	other := newAccount(t, p, "intruder")

	g := newGoal(t, p, a.ID, "goal-1")
	newGoal(t, p, a.ID, "goal-2")
	newGoal(t, p, other.ID, "goal-3")

	got, err := p.GetGoal(ctx, a.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", got.Title)
	assert.Equal(t, progress.FrequencyCustom, got.Frequency.Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, got.Frequency.Weekdays)
	require.Len(t, got.Plan, 1)
	assert.False(t, got.Plan[0].Done())

	_, err = p.GetGoal(ctx, other.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "goals are scoped to their account")

	goals, err := p.ListGoals(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "goal-1", goals[0].ID)
	assert.Len(t, goals[0].Plan, 1)

	doneAt := created.Add(time.Hour)
	got.Title = "Read more"
	got.Frequency = progress.Daily()
	got.Plan[0].CompletedAt = &doneAt
	got.Plan = append(got.Plan, models.Step{Description: "read chapter one"})
	got.UpdatedAt = doneAt
	require.NoError(t, p.UpdateGoal(ctx, got))

	updated, err := p.GetGoal(ctx, a.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Title)
	assert.Equal(t, progress.FrequencyDaily, updated.Frequency.Kind)
	require.Len(t, updated.Plan, 2)
	require.True(t, updated.Plan[0].Done())
	assert.True(t, updated.Plan[0].CompletedAt.Equal(doneAt))
	assert.Equal(t, "read chapter one", updated.Plan[1].Description)
	assert.True(t, updated.UpdatedAt.Equal(doneAt))

	missing := got
	missing.ID = "nope"
	assert.ErrorIs(t, p.UpdateGoal(ctx, missing), apperr.ErrNotFound)

	require.NoError(t, p.SaveHistory(ctx, g.ID, progress.NewHistory("2026-03-02")))
	require.NoError(t, p.DeleteGoal(ctx, a.ID, g.ID))

	_, err = p.GetGoal(ctx, a.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	history, err := p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "delete cascades to history")

	assert.ErrorIs(t, p.DeleteGoal(ctx, a.ID, g.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, p.DeleteGoal(ctx, a.ID, "goal-3"), apperr.ErrNotFound, "cannot delete another account's goal")
}

func testHistory(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "history")
	g := newGoal(t, p, a.ID, "goal-history")

	first := progress.NewHistory("2026-03-02", "2026-03-04")
	require.NoError(t, p.SaveHistory(ctx, g.ID, first))

	loaded, err := p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(first))

	second := progress.NewHistory("2026-03-04", "2026-03-09")
	require.NoError(t, p.SaveHistory(ctx, g.ID, second))

	loaded, err = p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-04", "2026-03-09"}, loaded.Strings())

	goals, err := p.ListGoals(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].History.Equal(second))
}

func testPet(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "pet")

	pet, err := p.LoadPet(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mochi", pet.Name)
	assert.True(t, pet.LastFedAt.Equal(created))
	assert.Empty(t, pet.Inventory)

	pet.Add("apple", 2)
	pet.Add("fish", 1)
	pet.LastFedAt = created.Add(5 * time.Hour)
	require.NoError(t, p.SavePet(ctx, a.ID, pet))

	pet.Take("fish")
	require.NoError(t, p.SavePet(ctx, a.ID, pet))

	loaded, err := p.LoadPet(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"apple": 2}, loaded.Inventory)
	assert.True(t, loaded.LastFedAt.Equal(created.Add(5*time.Hour)))

	_, err = p.LoadPet(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func testTxnRollback(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "rollback")
	g := newGoal(t, p, a.ID, "goal-rollback")

	boom := errors.New("boom")
	err := p.Txn(ctx, func(r storage.Repo) error {
		if err := r.SaveHistory(ctx, g.ID, progress.NewHistory("2026-03-02")); err != nil {
			return err
		}
		if _, err := r.ApplyDelta(ctx, a.ID, 10); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	history, err := p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	acc, err := p.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, acc.Coins)

	err = p.Txn(ctx, func(r storage.Repo) error {
		if err := r.SaveHistory(ctx, g.ID, progress.NewHistory("2026-03-02")); err != nil {
			return err
		}
		_, err := r.ApplyDelta(ctx, a.ID, 10)
		return err
	})
	require.NoError(t, err)

	history, err = p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, history.Has("2026-03-02"))
	acc, err = p.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Coins)
}

// testConcurrentToggles runs read-modify-write transactions on one goal in parallel. Every
// update must survive.
func testConcurrentToggles(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := newAccount(t, p, "concurrent")
	g := newGoal(t, p, a.ID, "goal-concurrent")

	const workers = 8
	start := progress.DayID("2026-03-01")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(day progress.DayID) {
			defer wg.Done()
			errs <- p.Txn(ctx, func(r storage.Repo) error {
				if _, err := r.GetGoal(ctx, a.ID, g.ID); err != nil {
					return err
				}
				history, err := r.LoadHistory(ctx, g.ID)
				if err != nil {
					return err
				}
				next, delta := progress.Toggle(history, day)
				if err := r.SaveHistory(ctx, g.ID, next); err != nil {
					return err
				}
				_, err = r.ApplyDelta(ctx, a.ID, delta)
				return err
			})
		}(start.AddDays(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	history, err := p.LoadHistory(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, history, workers, fmt.Sprintf("history = %v", history.Strings()))

	acc, err := p.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*progress.RewardPerCompletion, acc.Coins)
}
