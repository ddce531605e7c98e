package goals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitpal/internal/cli"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/service"
)

// historyDays is how many days goal show draws.
const historyDays = 14

type GoalCmd struct {
	Add    GoalAddCmd    `cmd:"" help:"Add a new goal."`
	List   GoalListCmd   `cmd:"" help:"List goals with today's progress." default:"1"`
	Show   GoalShowCmd   `cmd:"" help:"Show a goal, its plan and recent history."`
	Edit   GoalEditCmd   `cmd:"" help:"Edit a goal."`
	Delete GoalDeleteCmd `cmd:"" help:"Delete a goal and its history."`
	Toggle GoalToggleCmd `cmd:"" help:"Mark or unmark a day as completed."`
	Step   struct {
		Add  StepAddCmd  `cmd:"" help:"Append a step to a goal's plan."`
		Done StepDoneCmd `cmd:"" help:"Mark a plan step as done."`
	} `cmd:"" help:"Manage a goal's plan."`
}

// resolveGoal finds a goal of the account by full ID or unique ID prefix.
func resolveGoal(ctx *cli.Context, account models.Account, ref string) (models.GoalSummary, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.GoalSummary{}, apperr.Invalid("goal", "must not be empty")
	}

	goal, err := ctx.Service.GetGoal(ctx.Context(), account.ID, ref)
	if err == nil {
		return goal, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.GoalSummary{}, err
	}

	goals, err := ctx.Service.ListGoals(ctx.Context(), account.ID)
	if err != nil {
		return models.GoalSummary{}, err
	}
	var matches []models.GoalSummary
	for _, g := range goals {
		if strings.HasPrefix(g.ID, ref) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return models.GoalSummary{}, apperr.NotFound("goal", ref)
	case 1:
		return matches[0], nil
	default:
		return models.GoalSummary{}, apperr.Invalid("goal", "%q matches %d goals, use a longer prefix", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type GoalAddCmd struct {
	Title       string   `arg:"" help:"Goal title."`
	Description string   `arg:"" help:"What the goal is about."`
	Step        []string `help:"Plan step, repeat for several." short:"s" sep:"none"`
	Frequency   string   `help:"'daily' or weekdays such as 'mon,wed,fri'." default:"daily" short:"f"`
}

func (c *GoalAddCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	freq, err := cli.ParseFrequency(c.Frequency)
	if err != nil {
		return apperr.Invalid("frequency", "%v", err)
	}

	goal, err := ctx.Service.CreateGoal(ctx.Context(), account.ID, service.GoalInput{
		Title:       c.Title,
		Description: c.Description,
		Steps:       c.Step,
		Frequency:   freq,
	})
	if err != nil {
		return err
	}

	ctx.Printf("✓ Added goal %s (%s), %s\n", goal.Title, shortID(goal.ID), goal.Frequency)
	return nil
}

type GoalListCmd struct{}

func (c *GoalListCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	goals, err := ctx.Service.ListGoals(ctx.Context(), account.ID)
	if err != nil {
		return err
	}

	if len(goals) == 0 {
		ctx.Println("No goals yet. Add one with 'habitpal goal add'.")
		return nil
	}

	ctx.Printf("%s  %s\n\n", cli.Title("Goals for "+ctx.Service.Today(account).String()), cli.Coins(account.Coins))
	for _, g := range goals {
		line := fmt.Sprintf("%s %s  %-24s %-16s %s",
			cli.Check(g.CompletedToday), cli.Dim(shortID(g.ID)), g.Title, g.Frequency, cli.Streak(g.Streak))
		if !g.ScheduledToday {
			line += cli.Dim("  (rest day)")
		}
		ctx.Println(line)
	}
	return nil
}

type GoalShowCmd struct {
	ID string `arg:"" help:"Goal ID or ID prefix."`
}

func (c *GoalShowCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}

	ctx.Println(cli.Title(g.Title))
	if g.Description != "" {
		ctx.Println("  " + g.Description)
	}
	ctx.Printf("  ID:        %s\n", g.ID)
	ctx.Printf("  Frequency: %s\n", g.Frequency)
	ctx.Printf("  Streak:    %s (longest %d)\n", cli.Streak(g.Streak), g.LongestStreak)
	ctx.Printf("  30 days:   %.0f%%\n", g.Rate30*100)

	if len(g.Plan) > 0 {
		ctx.Println()
		ctx.Println("  Plan:")
		for i, step := range g.Plan {
			ctx.Printf("  %s %d. %s\n", cli.Check(step.Done()), i+1, step.Description)
		}
	}

	ctx.Println()
	ctx.Printf("  Last %d days: %s\n", historyDays, historyStrip(g))
	return nil
}

// historyStrip draws one mark per day, oldest first, ending today.
func historyStrip(g models.GoalSummary) string {
	done := make(map[string]bool, len(g.History))
	for _, d := range g.History {
		done[d] = true
	}
	today := progress.DayID(g.Today)

	var b strings.Builder
	for i := historyDays - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		switch {
		case done[day.String()]:
			b.WriteString(cli.Check(true))
		case g.Frequency.IsScheduled(day):
			b.WriteString(cli.Check(false))
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

type GoalEditCmd struct {
	ID          string `arg:"" help:"Goal ID or ID prefix."`
	Title       string `help:"New title."`
	Description string `help:"New description."`
	Frequency   string `help:"New frequency: 'daily' or weekdays such as 'mon,wed,fri'."`
}

func (c *GoalEditCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}

	var patch service.GoalPatch
	if c.Title != "" {
		patch.Title = &c.Title
	}
	if c.Description != "" {
		patch.Description = &c.Description
	}
	if c.Frequency != "" {
		freq, err := cli.ParseFrequency(c.Frequency)
		if err != nil {
			return apperr.Invalid("frequency", "%v", err)
		}
		patch.Frequency = &freq
	}
	if patch.Title == nil && patch.Description == nil && patch.Frequency == nil {
		return errors.New("nothing to change, pass --title, --description or --frequency")
	}

	updated, err := ctx.Service.EditGoal(ctx.Context(), account.ID, g.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated goal %s (%s)\n", updated.Title, shortID(updated.ID))
	return nil
}

type GoalDeleteCmd struct {
	ID  string `arg:"" help:"Goal ID or ID prefix."`
	Yes bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *GoalDeleteCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := cli.ConfirmFunc(
			fmt.Sprintf("Delete goal %q?", g.Title),
			fmt.Sprintf("Its %d completed day(s) are removed too. Coins already earned are kept.", len(g.History)),
		)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Service.DeleteGoal(ctx.Context(), account.ID, g.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted goal %s\n", g.Title)
	return nil
}

type GoalToggleCmd struct {
	ID  string `arg:"" help:"Goal ID or ID prefix."`
	Day string `help:"Day to toggle as YYYY-MM-DD, defaults to today in the account's timezone." short:"d"`
}

func (c *GoalToggleCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}

	res, err := ctx.Service.ToggleGoalDay(ctx.Context(), account.ID, g.ID, c.Day)
	if err != nil {
		return err
	}

	if res.Completed {
		ctx.Printf("%s %s done for %s, +%d coins\n", cli.Check(true), g.Title, res.Day, res.Delta)
	} else {
		ctx.Printf("%s %s unmarked for %s, %d coins\n", cli.Check(false), g.Title, res.Day, res.Delta)
	}
	ctx.Printf("  %s, balance %s\n", cli.Streak(res.Goal.Streak), cli.Coins(res.Coins))
	return nil
}

type StepAddCmd struct {
	ID          string `arg:"" help:"Goal ID or ID prefix."`
	Description string `arg:"" help:"Step description."`
}

func (c *StepAddCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}

	updated, err := ctx.Service.AddStep(ctx.Context(), account.ID, g.ID, c.Description)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added step %d to %s\n", len(updated.Plan), updated.Title)
	return nil
}

type StepDoneCmd struct {
	ID     string `arg:"" help:"Goal ID or ID prefix."`
	Number int    `arg:"" help:"Step number as shown by 'goal show', starting at 1."`
}

func (c *StepDoneCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	g, err := resolveGoal(ctx, account, c.ID)
	if err != nil {
		return err
	}
	if c.Number < 1 {
		return apperr.Invalid("step", "numbers start at 1")
	}

	updated, err := ctx.Service.CompleteStep(ctx.Context(), account.ID, g.ID, c.Number-1)
	if err != nil {
		return err
	}

	done := 0
	for _, step := range updated.Plan {
		if step.Done() {
			done++
		}
	}
	ctx.Printf("✓ Step %d of %s done (%d/%d)\n", c.Number, updated.Title, done, len(updated.Plan))
	return nil
}
