// Package commands implements the flows of the staking operator tool.
package commands

import (
	"fmt"
	"strconv"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/core/analytics"
	"github.com/ardanlabs/staking/business/core/rewards"
	"github.com/ardanlabs/staking/business/core/txn"
	"github.com/ardanlabs/staking/business/sys/faucet"
	"github.com/ardanlabs/staking/business/sys/keys"
	"github.com/ardanlabs/staking/foundation/network"
	"github.com/ardanlabs/staking/foundation/registry"
	"go.uber.org/zap"
)

// Memo suffixes identify this tool on chain.
const (
	memoTransfer = "Transfer via staking tool"
	memoStake    = "Staking via staking tool"
)

// MemoClaim is the memo attached to every reward claim.
const MemoClaim = "Claiming rewards via staking tool"

// Minimum amounts accepted by the chain, in minor units.
var (
	chainMinDelegation     = math.NewInt(chain.MinDelegation)
	chainMinSelfDelegation = math.NewInt(chain.MinSelfDelegation)
)

// Default logical account keys.
const (
	defaultSender    = "wallet1"
	defaultRecipient = "wallet2"
)

// Env carries the components a command needs.
type Env struct {
	Log       *zap.SugaredLogger
	Profile   network.Profile
	Registry  *registry.Registry
	SignMode  chain.SignModeHandler
	Querier   chain.Querier
	Executor  *txn.Executor
	Rewards   *rewards.Aggregator
	Analytics *analytics.Analytics
	Faucet    *faucet.Client
}

// source resolves the logical account key to a signing source.
func (env Env) source(key string) (*keys.Source, error) {
	return keys.FromRegistry(env.Registry, key, env.Profile.WalletParams(), env.SignMode)
}

// resolve returns the address for a logical account key, or the value itself
// when it isn't a known key.
func (env Env) resolve(keyOrAddress string) string {
	if entry, exists := env.Registry.Lookup(keyOrAddress); exists {
		return entry.Address
	}
	return keyOrAddress
}

// display renders a minor unit amount as whole tokens.
func (env Env) display(amount math.Int) string {
	return fmt.Sprintf("%s %s", chain.FormatAmount(amount, chain.MicroDenomExponent), env.Profile.Denom)
}

// printResult prints the details of an included transaction.
func (env Env) printResult(res chain.TxResult) {
	fmt.Printf("Tx Hash: %s\n", res.Hash)
	fmt.Printf("Height:  %d\n", res.Height)
	fmt.Printf("Gas:     %d / %d\n", res.GasUsed, res.GasWanted)
	if url := env.Profile.TxURL(res.Hash); url != "" {
		fmt.Printf("Explorer: %s\n", url)
	}
}

// arg returns the positional argument at index i or the default.
func arg(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

// parseAmount parses an optional minor unit amount argument. An empty value
// returns the zero Int and false.
func parseAmount(value string) (math.Int, bool, error) {
	if value == "" {
		return math.Int{}, false, nil
	}

	amount, ok := math.NewIntFromString(value)
	if !ok || !amount.IsPositive() {
		return math.Int{}, false, fmt.Errorf("invalid amount %q", value)
	}

	return amount, true, nil
}

// parseCount parses an optional positive count argument.
func parseCount(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q", value)
	}

	return n, nil
}

// percentOf returns pct percent of the amount, rounded down.
func percentOf(amount math.Int, pct int64) math.Int {
	return amount.MulRaw(pct).QuoRaw(100)
}
