package cmd

import (
	"fmt"

	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/ardanlabs/staking/foundation/wallet"
	"github.com/spf13/cobra"
)

var showAll bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address for the specific account",
	RunE:  addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.Flags().BoolVar(&showAll, "all", false, "Print every account in the registry.")
}

func addressRun(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	if showAll {
		reg, err := registry.Load(accountsFile)
		if err != nil {
			return err
		}

		for _, key := range reg.Keys() {
			entry, _ := reg.Lookup(key)
			fmt.Printf("%s: %s\n", key, entry.Address)
		}
		return nil
	}

	entry, err := loadAccount()
	if err != nil {
		return err
	}

	// The address is derived again so a registry edited by hand is caught.
	w, err := wallet.FromMnemonic(entry.Mnemonic, profile.WalletParams())
	if err != nil {
		return err
	}

	if w.Address() != entry.Address {
		return fmt.Errorf("account %q: registry address %s doesn't match derived address %s", accountKey, entry.Address, w.Address())
	}

	fmt.Println(w.Address())
	return nil
}
