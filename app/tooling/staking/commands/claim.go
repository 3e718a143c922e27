package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/staking/business/core/rewards"
)

// Claim withdraws pending rewards from one validator or from every validator
// the account delegates to.
//
//	claim [key] [validator|all]
func Claim(ctx context.Context, args []string, env Env) error {
	key := arg(args, 0, defaultSender)
	target := arg(args, 1, rewards.All)

	src, err := env.source(key)
	if err != nil {
		return err
	}

	sum, err := env.Rewards.Claim(ctx, src, target)
	if err != nil && len(sum.Outcomes) == 0 {
		return err
	}

	if sum.NoRewards {
		fmt.Printf("No pending rewards for %s\n", sum.Delegator)
		return nil
	}

	for i, o := range sum.Outcomes {
		fmt.Printf("%d. %s pending %s\n", i+1, o.Validator, o.Pending)
		if o.Failed() {
			fmt.Printf("   FAILED: %s\n", o.Err)
			continue
		}
		fmt.Printf("   claimed in %s\n", o.Result.Hash)
	}

	fmt.Printf("\nClaimed: %d  Failed: %d  Unprocessed: %d\n", sum.Succeeded(), sum.Failed(), sum.Unprocessed)

	if err != nil {
		return fmt.Errorf("claim interrupted: %w", err)
	}

	return nil
}
