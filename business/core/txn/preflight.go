package txn

import (
	"context"
	"fmt"
	"sort"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
)

// preflight verifies the sender can pay for the operation and its target
// exists. Nothing is written to the chain when it fails.
func (e *Executor) preflight(ctx context.Context, acc chain.Account, op Operation) error {
	required := make(map[string]math.Int)
	add := func(denom string, amount math.Int) {
		if cur, exists := required[denom]; exists {
			required[denom] = cur.Add(amount)
			return
		}
		required[denom] = amount
	}

	switch op.Kind {
	case KindTransfer, KindDelegate, KindCreateValidator:
		add(op.Denom, op.Amount)
	}

	// Simulations are never broadcast so no fee is paid.
	if op.Kind != KindCreateValidator && e.fee.Amount.IsPositive() {
		add(e.fee.Denom, e.fee.Amount)
	}

	balances, err := e.querier.Balances(ctx, acc.Address)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	denoms := make([]string, 0, len(required))
	for denom := range required {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)

	for _, denom := range denoms {
		available := balances.AmountOf(denom)
		if available.LT(required[denom]) {
			return &chain.InsufficientFundsError{
				Address:   acc.Address,
				Denom:     denom,
				Required:  required[denom],
				Available: available,
			}
		}
	}

	switch op.Kind {
	case KindDelegate, KindWithdrawRewards:
		if _, err := e.querier.Validator(ctx, op.Validator); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}

	return nil
}
