package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/staking/business/chain"
)

// Stake delegates tokens to a validator. With no validator the top bonded
// validator is used and with no amount 5% of the balance is delegated.
//
//	stake [key] [validator] [amount]
func Stake(ctx context.Context, args []string, env Env) error {
	key := arg(args, 0, defaultSender)

	src, err := env.source(key)
	if err != nil {
		return err
	}

	validator := arg(args, 1, "")
	if validator == "" {
		vals, err := env.Querier.Validators(ctx, chain.StatusBonded)
		if err != nil {
			return fmt.Errorf("validators: %w", err)
		}

		if len(vals) == 0 {
			return errors.New("no bonded validators available")
		}

		validator = vals[0].OperatorAddress
		fmt.Printf("Selected validator: %s (%s)\n", vals[0].Moniker, validator)
	}

	amount, set, err := parseAmount(arg(args, 2, ""))
	if err != nil {
		return err
	}

	if !set {
		bals, err := env.Querier.Balances(ctx, src.Address())
		if err != nil {
			return fmt.Errorf("balance of %s: %w", key, err)
		}

		available := bals.AmountOf(env.Profile.Denom)
		fmt.Printf("Balance of %s: %s\n", key, env.display(available))

		amount = percentOf(available, 5)
		if amount.LT(chainMinDelegation) {
			return fmt.Errorf("account %s can't fund the minimum delegation of %s, request funds from the faucet first", key, env.display(chainMinDelegation))
		}
	}

	fmt.Printf("Delegating %s to %s\n", env.display(amount), validator)

	res, err := env.Executor.Delegate(ctx, src, validator, amount, memoStake)
	if err != nil {
		return fmt.Errorf("delegate: %w", err)
	}

	fmt.Println("Delegation successful")
	env.printResult(res)

	del, exists, err := env.Querier.Delegation(ctx, src.Address(), validator)
	switch {
	case err != nil:
		env.Log.Infow("stake", "status", "delegation lookup failed", "ERROR", err)
	case exists:
		fmt.Printf("Delegated: %s (shares %s)\n", env.display(del.Balance.Amount), del.Shares)
	}

	return nil
}
