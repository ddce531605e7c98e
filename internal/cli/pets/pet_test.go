package pets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitpal/internal/cli/clitest"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/service"
)

// earn gives the account coins by completing a daily goal on the last n days.
func earn(t *testing.T, env *clitest.Env, accountID string, n int) {
	t.Helper()
	ctx := env.Ctx.Context()
	g, err := env.Ctx.Service.CreateGoal(ctx, accountID, service.GoalInput{Title: "Walk", Description: "around the block"})
	require.NoError(t, err)
	today := progress.DayID(g.Today)
	for i := 0; i < n; i++ {
		_, err := env.Ctx.Service.ToggleGoalDay(ctx, accountID, g.ID, today.AddDays(-i).String())
		require.NoError(t, err)
	}
}

func TestPetStatus(t *testing.T) {
	env := clitest.Ready(t)
	env.Signup("ana")
	env.Output()

	require.NoError(t, (&PetStatusCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "happy")
	assert.Contains(t, out, "0/100")
	assert.Contains(t, out, "just now")
	assert.Contains(t, out, "Inventory: empty")

	env.Advance(3 * time.Hour)
	require.NoError(t, (&PetStatusCmd{}).Run(env.Ctx))
	out = env.Output()
	assert.Contains(t, out, "neutral")
	assert.Contains(t, out, "37/100")
	assert.Contains(t, out, "3h00m ago")
}

func TestStoreBuyAndFeed(t *testing.T) {
	env := clitest.Ready(t)
	account := env.Signup("ana")

	err := (&StoreBuyCmd{Food: "apple", Quantity: 1}).Run(env.Ctx)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	earn(t, env, account.ID, 4)
	env.Output()

	require.NoError(t, (&StoreListCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "kibble")
	assert.Contains(t, out, "Balance: 40 coins")

	require.NoError(t, (&StoreBuyCmd{Food: "Apple", Quantity: 2}).Run(env.Ctx))
	out = env.Output()
	assert.Contains(t, out, "Bought 2 apple for 30 coins")
	assert.Contains(t, out, "Balance: 10 coins, Pet now has 2")

	assert.ErrorIs(t, (&StoreBuyCmd{Food: "pizza", Quantity: 1}).Run(env.Ctx), apperr.ErrValidation)
	assert.ErrorIs(t, (&StoreBuyCmd{Food: "kibble", Quantity: 0}).Run(env.Ctx), apperr.ErrValidation)

	env.Advance(6 * time.Hour)
	require.NoError(t, (&PetFeedCmd{Food: "apple"}).Run(env.Ctx))
	out = env.Output()
	assert.Contains(t, out, "Fed apple to Pet")
	assert.Contains(t, out, "happy")
	assert.Contains(t, out, "apple      x1")

	require.NoError(t, (&PetFeedCmd{Food: "apple"}).Run(env.Ctx))
	assert.ErrorIs(t, (&PetFeedCmd{Food: "apple"}).Run(env.Ctx), apperr.ErrValidation, "nothing left to feed")
}

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "1m"},
		{45 * time.Minute, "45m"},
		{90 * time.Minute, "1h30m"},
		{50 * time.Hour, "2 days"},
	}
	for _, tt := range tests {
		if got := humanizeDuration(tt.d); got != tt.want {
			t.Errorf("humanizeDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
