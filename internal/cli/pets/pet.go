package pets

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/models"
)

type PetStatusCmd struct{}

func (c *PetStatusCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	status, err := ctx.Service.PetStatus(ctx.Context(), account.ID)
	if err != nil {
		return err
	}

	printStatus(ctx, status)
	return nil
}

func printStatus(ctx *cli.Context, status models.PetStatus) {
	ctx.Printf("%s is %s\n", cli.Title(status.Name), cli.Mood(status.Hunger.Mood))
	ctx.Printf("  Hunger:    %s\n", cli.HungerBar(status.Hunger.Level))
	ctx.Printf("  Last fed:  %s\n", humanizeSince(status.LastFedAt, status.AsOf))
	if status.NextMoodChange != nil {
		ctx.Printf("  Mood drops in %s\n", humanizeDuration(status.NextMoodChange.Sub(status.AsOf)))
	}

	foods := status.Foods()
	if len(foods) == 0 {
		ctx.Println("  Inventory: empty, buy food with 'habitpal store buy'")
		return
	}
	ctx.Println("  Inventory:")
	for _, food := range foods {
		ctx.Printf("    %-10s x%d\n", food, status.Inventory[food])
	}
}

type PetFeedCmd struct {
	Food string `arg:"" help:"Food from the inventory."`
}

func (c *PetFeedCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	status, err := ctx.Service.Feed(ctx.Context(), account.ID, c.Food)
	if err != nil {
		return err
	}

	ctx.Printf("✓ Fed %s to %s\n\n", c.Food, status.Name)
	printStatus(ctx, status)
	return nil
}

func humanizeSince(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	return humanizeDuration(d) + " ago"
}

func humanizeDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h >= 48:
		return fmt.Sprintf("%d days", h/24)
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
