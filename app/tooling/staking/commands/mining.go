package commands

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
)

// Settings of the simulated validator.
const (
	simMoniker    = "MyCosmosValidator"
	simCommission = "0.10"
)

// Mining shows the validators securing the network and simulates becoming
// one. Nothing is broadcast.
//
//	mining [key]
func Mining(ctx context.Context, args []string, env Env) error {
	key := arg(args, 0, defaultSender)

	src, err := env.source(key)
	if err != nil {
		return err
	}

	rows, err := env.Analytics.TopValidators(ctx, chain.StatusBonded, 3)
	if err != nil {
		return err
	}

	fmt.Println("Top validators:")
	for i, row := range rows {
		fmt.Printf("%d. %s\n", i+1, row.Validator.Moniker)
		fmt.Printf("   Address:    %s\n", row.Validator.OperatorAddress)
		fmt.Printf("   Tokens:     %s\n", env.display(row.Validator.Tokens))
		fmt.Printf("   Commission: %s\n", row.Validator.Commission)

		if row.Err != nil {
			fmt.Printf("   APR:        n/a (%s)\n", row.Err)
			continue
		}
		fmt.Printf("   APR:        %s\n", row.Estimate.Percent())
	}

	sim, err := env.Executor.SimulateCreateValidator(ctx, src, simMoniker, math.LegacyMustNewDecFromStr(simCommission), chainMinSelfDelegation)
	if err != nil {
		return fmt.Errorf("create validator simulation: %w", err)
	}

	fmt.Println("\nValidator simulation:")
	fmt.Printf("Moniker:         %s\n", sim.Moniker)
	fmt.Printf("Operator:        %s\n", sim.Operator)
	fmt.Printf("Self delegation: %s\n", env.display(sim.SelfDelegation.Amount))
	fmt.Printf("Commission:      %s\n", sim.Commission)

	fmt.Println("\nTo run a real validator:")
	for i, step := range sim.Steps {
		fmt.Printf("%d. %s\n", i+1, step)
	}

	return nil
}
