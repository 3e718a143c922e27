// Package rewards claims the staking rewards a delegator has pending across
// one or all of the validators it delegates to.
package rewards

import (
	"context"
	"fmt"

	"github.com/ardanlabs/staking/business/chain"
	"go.uber.org/multierr"
)

// All requests rewards be claimed from every validator with pending rewards.
const All = "all"

// DefaultMemo is attached to claim transactions when none is configured.
const DefaultMemo = "Claiming rewards"

// Claimer represents the behavior required to claim the rewards of one
// delegation. The executor in the txn package implements it.
type Claimer interface {
	WithdrawRewards(ctx context.Context, src chain.AccountSource, validator string, memo string) (chain.TxResult, error)
}

// Config represents the collaborators required by the aggregator.
type Config struct {
	Querier   chain.Querier
	Claimer   Claimer
	MaxClaims int
	Memo      string
	EvHandler chain.EventHandler
}

// Aggregator claims rewards one validator at a time.
type Aggregator struct {
	querier   chain.Querier
	claimer   Claimer
	maxClaims int
	memo      string
	evHandler chain.EventHandler
}

// New constructs an aggregator for use. A MaxClaims of zero means every
// validator with pending rewards is claimed in one call.
func New(cfg Config) (*Aggregator, error) {
	switch {
	case cfg.Querier == nil:
		return nil, chain.NewConfigurationError("querier", "no querier provided")
	case cfg.Claimer == nil:
		return nil, chain.NewConfigurationError("claimer", "no claimer provided")
	case cfg.MaxClaims < 0:
		return nil, chain.NewConfigurationError("rewards.maxClaims", "must not be negative, got %d", cfg.MaxClaims)
	}

	memo := cfg.Memo
	if memo == "" {
		memo = DefaultMemo
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	a := Aggregator{
		querier:   cfg.Querier,
		claimer:   cfg.Claimer,
		maxClaims: cfg.MaxClaims,
		memo:      memo,
		evHandler: ev,
	}

	return &a, nil
}

// =============================================================================

// Outcome represents the result of claiming from a single validator.
type Outcome struct {
	Validator string
	Pending   chain.Coins
	Result    chain.TxResult
	Err       error
}

// Failed reports whether the claim failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Summary represents the result of a claim call. NoRewards is set when the
// delegator had nothing pending, which is a normal outcome.
type Summary struct {
	Delegator   string
	Claimed     bool
	NoRewards   bool
	Outcomes    []Outcome
	Unprocessed int
}

// Succeeded returns the number of successful claims.
func (s Summary) Succeeded() int {
	var n int
	for _, o := range s.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed claims.
func (s Summary) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// Err combines the failures of every claim, nil if none failed.
func (s Summary) Err() error {
	var err error
	for _, o := range s.Outcomes {
		if o.Err != nil {
			err = multierr.Append(err, fmt.Errorf("validator %s: %w", o.Validator, o.Err))
		}
	}
	return err
}

// =============================================================================

// Claim claims the pending rewards of the account for the target, which is a
// validator operator address or All. With All, validators are claimed in the
// order the chain reports them and a failed claim doesn't stop the rest.
func (a *Aggregator) Claim(ctx context.Context, src chain.AccountSource, target string) (Summary, error) {
	acc, err := src.Account(ctx)
	if err != nil {
		return Summary{}, err
	}

	pending, err := a.querier.PendingRewards(ctx, acc.Address)
	if err != nil {
		return Summary{}, fmt.Errorf("pending rewards: %w", err)
	}

	sum := Summary{Delegator: acc.Address}

	if len(pending) == 0 {
		a.evHandler("rewards: claim: delegator[%s]: no rewards", acc.Address)
		sum.NoRewards = true
		return sum, nil
	}

	if target != All {
		return a.claimOne(ctx, src, sum, pending, target)
	}

	limit := len(pending)
	if a.maxClaims > 0 && a.maxClaims < limit {
		limit = a.maxClaims
	}

	for i, reward := range pending[:limit] {
		if err := ctx.Err(); err != nil {
			sum.Unprocessed = len(pending) - i
			return sum, err
		}

		res, err := a.claimer.WithdrawRewards(ctx, src, reward.ValidatorAddress, a.memo)

		sum.Outcomes = append(sum.Outcomes, Outcome{
			Validator: reward.ValidatorAddress,
			Pending:   reward.Amounts,
			Result:    res,
			Err:       err,
		})

		if err != nil {
			a.evHandler("rewards: claim: validator[%s]: ERROR: %s", reward.ValidatorAddress, err)
			continue
		}

		sum.Claimed = true
		a.evHandler("rewards: claim: validator[%s] hash[%s] amount[%s]", reward.ValidatorAddress, res.Hash, reward.Amounts)
	}

	sum.Unprocessed = len(pending) - limit

	a.evHandler("rewards: claim: delegator[%s] succeeded[%d] failed[%d] unprocessed[%d]",
		acc.Address, sum.Succeeded(), sum.Failed(), sum.Unprocessed)

	return sum, nil
}

// claimOne claims from a single validator. Its failure is returned.
func (a *Aggregator) claimOne(ctx context.Context, src chain.AccountSource, sum Summary, pending []chain.Reward, validator string) (Summary, error) {
	var amounts chain.Coins
	for _, reward := range pending {
		if reward.ValidatorAddress == validator {
			amounts = reward.Amounts
			break
		}
	}

	res, err := a.claimer.WithdrawRewards(ctx, src, validator, a.memo)

	sum.Outcomes = []Outcome{{Validator: validator, Pending: amounts, Result: res, Err: err}}

	if err != nil {
		return sum, err
	}

	sum.Claimed = true
	a.evHandler("rewards: claim: validator[%s] hash[%s] amount[%s]", validator, res.Hash, amounts)

	return sum, nil
}
