package lcd

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/avast/retry-go/v4"
)

// PollConfirmer waits for inclusion by polling the transaction by hash.
type PollConfirmer struct {
	client   *Client
	attempts uint
	delay    time.Duration
}

// NewPollConfirmer constructs a confirmer that polls up to attempts times
// with a fixed delay between polls.
func NewPollConfirmer(client *Client, attempts uint, delay time.Duration) *PollConfirmer {
	if attempts == 0 {
		attempts = 10
	}

	return &PollConfirmer{
		client:   client,
		attempts: attempts,
		delay:    delay,
	}
}

// Confirm implements the chain.Confirmer interface. Lookups that fail on the
// network are retried like a pending transaction since polling is a read.
func (pc *PollConfirmer) Confirm(ctx context.Context, hash string) (chain.TxResult, error) {
	retryable := func(err error) bool {
		return errors.Is(err, chain.ErrTxPending) || chain.IsNetworkError(err)
	}

	onRetry := func(n uint, err error) {
		pc.client.evHandler("lcd: confirm: hash[%s] attempt[%d]: %s", hash, n+1, err)
	}

	return retry.DoWithData(
		func() (chain.TxResult, error) {
			return pc.client.Tx(ctx, hash)
		},
		retry.Context(ctx),
		retry.Attempts(pc.attempts),
		retry.Delay(pc.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(onRetry),
	)
}
