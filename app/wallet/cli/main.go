// This program manages the local account registry: it generates accounts,
// prints their addresses and balances, and requests testnet funds.
package main

import "github.com/ardanlabs/staking/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
