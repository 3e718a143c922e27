package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/staking/business/sys/faucet"
	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/spf13/cobra"
)

var (
	faucetURL string
	fundAll   bool
)

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Request testnet funds for the accounts",
	RunE:  faucetRun,
}

func init() {
	rootCmd.AddCommand(faucetCmd)
	faucetCmd.Flags().StringVarP(&faucetURL, "url", "u", "https://faucet.cosmos.network/", "Url of the faucet.")
	faucetCmd.Flags().BoolVar(&fundAll, "all", false, "Request funds for every account in the registry.")
}

func faucetRun(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	reg, err := registry.Load(accountsFile)
	if err != nil {
		return err
	}

	keys := []string{accountKey}
	if fundAll {
		keys = reg.Keys()
	}

	client, err := faucet.New(faucet.Config{
		URL:       faucetURL,
		Denom:     profile.Denom,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	// A failed request isn't fatal. The account can be funded by hand.
	for _, key := range keys {
		entry, exists := reg.Lookup(key)
		if !exists {
			return fmt.Errorf("account %q is not in %s", key, accountsFile)
		}

		traceID, err := client.Request(ctx, entry.Address)
		if err != nil {
			if fe := faucet.GetError(err); fe != nil {
				fmt.Printf("%s: %s\n", key, fe.Hint())
				continue
			}
			return err
		}

		fmt.Printf("%s: funds requested for %s (trace %s)\n", key, entry.Address, traceID)
	}

	return nil
}
