// Package cmd contains the wallet app.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/staking/foundation/logger"
	"github.com/ardanlabs/staking/foundation/network"
	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountsFile string
	accountKey   string
	profileName  string
	profilesFile string
	logLevel     string
)

var log *zap.SugaredLogger

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Manage the accounts used by the staking tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New("WALLET", logLevel, "stderr")
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountsFile, "accounts", "f", "zstaking/accounts.json", "Path to the account registry.")
	rootCmd.PersistentFlags().StringVarP(&accountKey, "account", "a", "wallet1", "Logical key of the account.")
	rootCmd.PersistentFlags().StringVarP(&profileName, "network", "n", network.Testnet, "Name of the network profile.")
	rootCmd.PersistentFlags().StringVar(&profilesFile, "profiles", "", "Path to a YAML file of network profile overrides.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Level of the diagnostic logs written to stderr.")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// =============================================================================

func loadProfile() (network.Profile, error) {
	return network.Load(profileName, profilesFile)
}

func loadAccount() (registry.Entry, error) {
	reg, err := registry.Load(accountsFile)
	if err != nil {
		return registry.Entry{}, err
	}

	entry, exists := reg.Lookup(accountKey)
	if !exists {
		return registry.Entry{}, fmt.Errorf("account %q is not in %s", accountKey, accountsFile)
	}

	return entry, nil
}

// ev adapts the logger to the event handler used by the business packages.
func ev(v string, args ...any) {
	if log != nil {
		log.Infow(fmt.Sprintf(v, args...), "network", profileName)
	}
}
