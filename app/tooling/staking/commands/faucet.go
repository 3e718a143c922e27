package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/staking/business/sys/faucet"
)

// Faucet requests funds for every account in the registry. A failed request
// prints the manual steps and the remaining accounts are still attempted.
//
//	faucet
func Faucet(ctx context.Context, args []string, env Env) error {
	if env.Faucet == nil {
		return errors.New("no faucet configured for this network")
	}

	for _, key := range env.Registry.Keys() {
		entry, _ := env.Registry.Lookup(key)

		traceID, err := env.Faucet.Request(ctx, entry.Address)
		if err != nil {
			fe := faucet.GetError(err)
			if fe == nil {
				return err
			}

			env.Log.Infow("faucet", "status", "request failed", "account", key, "traceid", traceID, "ERROR", fe.Err)
			fmt.Printf("%s: %s\n", key, fe.Hint())
			continue
		}

		fmt.Printf("%s: funds requested for %s\n", key, entry.Address)
	}

	return nil
}
