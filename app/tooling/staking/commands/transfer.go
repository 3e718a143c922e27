package commands

import (
	"context"
	"fmt"
)

// Transfer sends tokens between accounts. With no amount it sends 10% of the
// sender's balance.
//
//	transfer [from] [to] [amount]
func Transfer(ctx context.Context, args []string, env Env) error {
	from := arg(args, 0, defaultSender)
	to := env.resolve(arg(args, 1, defaultRecipient))

	src, err := env.source(from)
	if err != nil {
		return err
	}

	amount, set, err := parseAmount(arg(args, 2, ""))
	if err != nil {
		return err
	}

	if !set {
		bals, err := env.Querier.Balances(ctx, src.Address())
		if err != nil {
			return fmt.Errorf("balance of %s: %w", from, err)
		}

		available := bals.AmountOf(env.Profile.Denom)
		fmt.Printf("Balance of %s: %s\n", from, env.display(available))

		amount = percentOf(available, 10)
		if !amount.IsPositive() {
			return fmt.Errorf("account %s has no %s to transfer, request funds from the faucet first", from, env.Profile.Denom)
		}
	}

	fmt.Printf("Sending %s from %s to %s\n", env.display(amount), src.Address(), to)

	res, err := env.Executor.Transfer(ctx, src, to, amount, memoTransfer)
	if err != nil {
		return err
	}

	fmt.Println("Transfer successful")
	env.printResult(res)

	return nil
}
