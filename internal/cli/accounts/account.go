package accounts

import (
	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/service"
)

type AccountCreateCmd struct {
	Name     string `arg:"" help:"Account name."`
	Timezone string `help:"UTC, a fixed offset such as +02:00, or an IANA zone name. Defaults to the configured timezone."`
	Pet      string `help:"Name of the account's pet." default:"Pet"`
}

func (c *AccountCreateCmd) Run(ctx *cli.Context) error {
	tz := c.Timezone
	if tz == "" {
		tz = ctx.Config.Timezone
	}

	account, err := ctx.Service.CreateAccount(ctx.Context(), service.CreateAccountInput{
		Name:     c.Name,
		Timezone: tz,
		PetName:  c.Pet,
	})
	if err != nil {
		return err
	}

	ctx.Printf("✓ Created account %s (%s)\n", account.Name, account.Timezone)
	ctx.Printf("  %s adopted a pet named %s\n", account.Name, c.Pet)
	ctx.Println()
	ctx.Println("API token (shown once, keep it safe):")
	ctx.Println("  " + account.Token)
	return nil
}

type AccountShowCmd struct{}

func (c *AccountShowCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}

	ctx.Println(cli.Title(account.Name))
	ctx.Printf("  ID:       %s\n", account.ID)
	ctx.Printf("  Timezone: %s\n", account.Timezone)
	ctx.Printf("  Today:    %s\n", ctx.Service.Today(account))
	ctx.Printf("  Balance:  %s\n", cli.Coins(account.Coins))
	ctx.Printf("  Since:    %s\n", account.CreatedAt.Format("2006-01-02"))
	return nil
}
