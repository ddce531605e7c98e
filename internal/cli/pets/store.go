package pets

import (
	"github.com/julianstephens/habitpal/internal/cli"
)

type StoreListCmd struct{}

func (c *StoreListCmd) Run(ctx *cli.Context) error {
	ctx.Println(cli.Title("Food store"))
	for _, item := range ctx.Service.Catalog() {
		ctx.Printf("  %-10s %s\n", item.Name, cli.Coins(item.Price))
	}

	if account, err := ctx.CurrentAccount(); err == nil {
		ctx.Printf("\nBalance: %s\n", cli.Coins(account.Coins))
	}
	return nil
}

type StoreBuyCmd struct {
	Food     string `arg:"" help:"Food to buy."`
	Quantity int    `arg:"" optional:"" help:"How many to buy." default:"1"`
}

func (c *StoreBuyCmd) Run(ctx *cli.Context) error {
	account, err := ctx.CurrentAccount()
	if err != nil {
		return err
	}
	res, err := ctx.Service.Purchase(ctx.Context(), account.ID, c.Food, c.Quantity)
	if err != nil {
		return err
	}

	ctx.Printf("✓ Bought %d %s for %s\n", res.Quantity, res.Food, cli.Coins(res.Cost))
	ctx.Printf("  Balance: %s, %s now has %d\n", cli.Coins(res.Coins), res.Pet.Name, res.Pet.Inventory[res.Food])
	return nil
}
