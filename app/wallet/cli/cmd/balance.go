package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/sys/lcd"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balances of the specific account",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	entry, err := loadAccount()
	if err != nil {
		return err
	}

	client, err := lcd.New(lcd.Config{
		BaseURL:   profile.RESTEndpoint,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	bals, err := client.Balances(ctx, entry.Address)
	if err != nil {
		return err
	}

	fmt.Println("For Account:", entry.Address)

	if len(bals) == 0 {
		fmt.Printf("0 %s\n", profile.Denom)
		return nil
	}

	for _, c := range bals {
		fmt.Printf("%s %s (%s)\n", chain.FormatAmount(c.Amount, chain.MicroDenomExponent), c.Denom, c.Amount)
	}

	return nil
}
