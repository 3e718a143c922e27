package cmd

import (
	"fmt"

	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/ardanlabs/staking/foundation/wallet"
	"github.com/spf13/cobra"
)

var (
	count     int
	overwrite bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new accounts and write the registry",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVarP(&count, "count", "c", 3, "Number of accounts to generate.")
	generateCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing registry.")
}

func generateRun(cmd *cobra.Command, args []string) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}

	accounts := make(map[string]registry.Entry, count)
	for i := 1; i <= count; i++ {
		w, err := wallet.Generate(12, profile.WalletParams())
		if err != nil {
			return err
		}

		accounts[fmt.Sprintf("wallet%d", i)] = registry.Entry{
			Mnemonic: w.Mnemonic(),
			Address:  w.Address(),
		}
	}

	reg, err := registry.Create(accountsFile, accounts, overwrite)
	if err != nil {
		return err
	}

	for _, key := range reg.Keys() {
		entry, _ := reg.Lookup(key)
		fmt.Printf("%s: %s\n", key, entry.Address)
	}
	fmt.Printf("\nMnemonics saved to %s, keep this file private.\n", reg.Path())

	return nil
}
