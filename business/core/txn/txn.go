// Package txn is the core API for executing transactions. Every operation is
// validated locally, preflight checked against the sender's balances, signed,
// broadcast, and confirmed. Writes from one account are serialized.
package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/sys/sdktx"
	"golang.org/x/sync/semaphore"
)

// Config represents the collaborators and chain parameters required to
// execute transactions.
type Config struct {
	Querier     chain.Querier
	Broadcaster chain.Broadcaster
	Confirmer   chain.Confirmer
	Encoder     chain.TxEncoder
	ChainID     string
	Prefix      string
	Denom       string
	Fee         chain.FeePolicy
	MemoLimit   int
	EvHandler   chain.EventHandler
}

// Executor manages the execution of transactions.
type Executor struct {
	querier     chain.Querier
	broadcaster chain.Broadcaster
	confirmer   chain.Confirmer
	encoder     chain.TxEncoder
	chainID     string
	prefix      string
	denom       string
	fee         chain.FeePolicy
	memoLimit   int
	evHandler   chain.EventHandler

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// New constructs an executor for use.
func New(cfg Config) (*Executor, error) {
	switch {
	case cfg.Querier == nil:
		return nil, chain.NewConfigurationError("querier", "no querier provided")
	case cfg.Broadcaster == nil:
		return nil, chain.NewConfigurationError("broadcaster", "no broadcaster provided")
	case cfg.Confirmer == nil:
		return nil, chain.NewConfigurationError("confirmer", "no confirmer provided")
	case cfg.ChainID == "":
		return nil, chain.NewConfigurationError("network.chainId", "no chain id configured")
	case cfg.Prefix == "":
		return nil, chain.NewConfigurationError("network.addressPrefix", "no address prefix configured")
	case cfg.Denom == "":
		return nil, chain.NewConfigurationError("network.denom", "no staking denom configured")
	}

	fee := cfg.Fee
	if fee.Denom == "" {
		fee = chain.DefaultFeePolicy(cfg.Denom)
	}

	if fee.Denom != cfg.Denom {
		return nil, chain.NewConfigurationError("fee.denom", "fee denom %q must equal staking denom %q", fee.Denom, cfg.Denom)
	}

	if fee.Amount.IsNil() {
		fee.Amount = math.ZeroInt()
	}

	if fee.Amount.IsNegative() {
		return nil, chain.NewConfigurationError("fee.amount", "fee amount %s is negative", fee.Amount)
	}

	if fee.Gas == 0 {
		return nil, chain.NewConfigurationError("fee.gas", "gas limit must be positive")
	}

	encoder := cfg.Encoder
	if encoder == nil {
		codec, err := sdktx.New(cfg.Prefix)
		if err != nil {
			return nil, err
		}
		encoder = codec
	}

	if cfg.MemoLimit < 0 {
		return nil, chain.NewConfigurationError("memo.limit", "memo limit %d is negative", cfg.MemoLimit)
	}

	memoLimit := cfg.MemoLimit
	if memoLimit == 0 {
		memoLimit = chain.MaxMemoLength
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	e := Executor{
		querier:     cfg.Querier,
		broadcaster: cfg.Broadcaster,
		confirmer:   cfg.Confirmer,
		encoder:     encoder,
		chainID:     cfg.ChainID,
		prefix:      cfg.Prefix,
		denom:       cfg.Denom,
		fee:         fee,
		memoLimit:   memoLimit,
		evHandler:   ev,
		locks:       make(map[string]*semaphore.Weighted),
	}

	return &e, nil
}

// Denom returns the staking denom the executor works with.
func (e *Executor) Denom() string {
	return e.denom
}

// Execute runs the operation for the account. Operations from the same
// account are queued so only one is in flight at a time.
func (e *Executor) Execute(ctx context.Context, src chain.AccountSource, op Operation) (Outcome, error) {
	acc, err := src.Account(ctx)
	if err != nil {
		return Outcome{}, err
	}

	op = e.normalize(op)
	if err := e.validate(acc, op); err != nil {
		return Outcome{}, err
	}

	lock := e.lockFor(acc.Address)
	if err := lock.Acquire(ctx, 1); err != nil {
		return Outcome{}, fmt.Errorf("waiting for account %s: %w", acc.Address, err)
	}
	defer lock.Release(1)

	e.evHandler("txn: execute: started: kind[%s] sender[%s]", op.Kind, acc.Address)

	if err := e.preflight(ctx, acc, op); err != nil {
		e.evHandler("txn: execute: preflight: kind[%s] sender[%s]: ERROR: %s", op.Kind, acc.Address, err)
		return Outcome{}, err
	}

	if op.Kind == KindCreateValidator {
		sim := e.simulate(acc, op)
		e.evHandler("txn: execute: simulated: operator[%s] moniker[%s]", sim.Operator, sim.Moniker)
		return Outcome{Kind: OutcomeSimulated, Simulation: &sim}, nil
	}

	res, err := e.submit(ctx, src, acc, e.message(acc, op), op.Memo)
	if err != nil {
		e.evHandler("txn: execute: kind[%s] sender[%s]: ERROR: %s", op.Kind, acc.Address, err)
		return Outcome{}, err
	}

	e.evHandler("txn: execute: completed: kind[%s] hash[%s] height[%d]", op.Kind, res.Hash, res.Height)

	return Outcome{Kind: OutcomeBroadcast, Result: res}, nil
}

// Transfer sends the amount of the staking denom to the recipient.
func (e *Executor) Transfer(ctx context.Context, src chain.AccountSource, to string, amount math.Int, memo string) (chain.TxResult, error) {
	op := Operation{
		Kind:   KindTransfer,
		To:     to,
		Amount: amount,
		Memo:   memo,
	}

	return e.broadcast(ctx, src, op)
}

// Delegate binds the amount of the staking denom to the validator.
func (e *Executor) Delegate(ctx context.Context, src chain.AccountSource, validator string, amount math.Int, memo string) (chain.TxResult, error) {
	op := Operation{
		Kind:      KindDelegate,
		Validator: validator,
		Amount:    amount,
		Memo:      memo,
	}

	return e.broadcast(ctx, src, op)
}

// WithdrawRewards claims the rewards pending on the validator.
func (e *Executor) WithdrawRewards(ctx context.Context, src chain.AccountSource, validator string, memo string) (chain.TxResult, error) {
	op := Operation{
		Kind:      KindWithdrawRewards,
		Validator: validator,
		Memo:      memo,
	}

	return e.broadcast(ctx, src, op)
}

// SimulateCreateValidator checks the operator can fund the self delegation
// and describes the validator that would be created. Nothing is broadcast.
func (e *Executor) SimulateCreateValidator(ctx context.Context, src chain.AccountSource, moniker string, commission math.LegacyDec, selfDelegation math.Int) (Simulation, error) {
	op := Operation{
		Kind:       KindCreateValidator,
		Moniker:    moniker,
		Commission: commission,
		Amount:     selfDelegation,
	}

	out, err := e.Execute(ctx, src, op)
	if err != nil {
		return Simulation{}, err
	}

	if out.Simulation == nil {
		return Simulation{}, errors.New("simulation produced no result")
	}

	return *out.Simulation, nil
}

// =============================================================================

func (e *Executor) broadcast(ctx context.Context, src chain.AccountSource, op Operation) (chain.TxResult, error) {
	out, err := e.Execute(ctx, src, op)
	if err != nil {
		return chain.TxResult{}, err
	}
	return out.Result, nil
}

// lockFor returns the semaphore serializing writes for the address.
func (e *Executor) lockFor(address string) *semaphore.Weighted {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, exists := e.locks[address]
	if !exists {
		lock = semaphore.NewWeighted(1)
		e.locks[address] = lock
	}

	return lock
}
