// Package chain defines the records, errors, and collaborator contracts shared
// by the packages that query, sign, and submit transactions to a Cosmos SDK
// proof of stake chain.
package chain

import (
	"context"
	"errors"
)

// Set of defaults used when building transactions.
const (
	DefaultFeeAmount     = 5000
	DefaultGas           = 200000
	MaxMemoLength        = 256
	MinDelegation        = 1000
	MinSelfDelegation    = 1000000
	MicroDenomMultiplier = 1000000
	MicroDenomExponent   = 6
)

// ErrTxPending is returned by a Confirmer when the transaction has not been
// included in a block yet.
var ErrTxPending = errors.New("transaction not yet included")

// EventHandler defines a function that is called when events
// occur while processing transactions and queries.
type EventHandler func(v string, args ...any)

// =============================================================================

// Querier represents the read only queries that can be made against
// the chain. Repeated calls reflect the latest chain state observed.
type Querier interface {
	Balances(ctx context.Context, address string) (Coins, error)
	Validators(ctx context.Context, status BondStatus) ([]Validator, error)
	Validator(ctx context.Context, address string) (Validator, error)
	Delegation(ctx context.Context, delegator string, validator string) (Delegation, bool, error)
	PendingRewards(ctx context.Context, delegator string) ([]Reward, error)
	Pool(ctx context.Context) (Pool, error)
	Account(ctx context.Context, address string) (AccountInfo, error)
}

// AccountSource supplies the identity and signing capability of a single
// account. Both operations are deterministic for the same key material.
type AccountSource interface {
	Account(ctx context.Context) (Account, error)
	Sign(req TxRequest) (SignedTx, error)
}

// SignModeHandler produces the sign doc bytes an account signs for a request.
type SignModeHandler interface {
	SignBytes(req TxRequest) ([]byte, error)
}

// TxEncoder converts a signed transaction into the bytes the chain accepts.
// The encoder also supplies the sign doc for the requests it encodes.
type TxEncoder interface {
	SignModeHandler
	Encode(tx SignedTx) ([]byte, error)
}

// Broadcaster submits encoded transactions and returns the result of the
// admission check. A non zero result code means the transaction was rejected
// and was never included.
type Broadcaster interface {
	Broadcast(ctx context.Context, txBytes []byte) (TxResult, error)
}

// Confirmer waits for the transaction to be included in a block.
type Confirmer interface {
	Confirm(ctx context.Context, hash string) (TxResult, error)
}
