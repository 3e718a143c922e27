package txn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/foundation/signature"
)

// submit signs, broadcasts, and confirms a transaction carrying the message.
// It's never retried; a caller must decide what to do with an unknown outcome.
func (e *Executor) submit(ctx context.Context, src chain.AccountSource, acc chain.Account, msg chain.Msg, memo string) (chain.TxResult, error) {
	info, err := e.querier.Account(ctx, acc.Address)
	if err != nil {
		return chain.TxResult{}, fmt.Errorf("account metadata: %w", err)
	}

	req := chain.TxRequest{
		Sender:        acc,
		Msgs:          []chain.Msg{msg},
		Fee:           e.fee.Fee(),
		Memo:          chain.TruncateMemo(memo, e.memoLimit),
		ChainID:       e.chainID,
		AccountNumber: info.AccountNumber,
		Sequence:      info.Sequence,
	}

	tx, err := src.Sign(req)
	if err != nil {
		return chain.TxResult{}, fmt.Errorf("signing: %w", err)
	}

	txBytes, err := e.encoder.Encode(tx)
	if err != nil {
		return chain.TxResult{}, fmt.Errorf("encoding: %w", err)
	}

	hash := signature.TxHash(txBytes)

	e.evHandler("txn: submit: broadcast: hash[%s] sequence[%d]", hash, info.Sequence)

	res, err := e.broadcaster.Broadcast(ctx, txBytes)
	if err != nil {

		// A client error from the gateway means it refused the request.
		// Anything else may have reached the mempool.
		var ne *chain.NetworkError
		if errors.As(err, &ne) && ne.Status >= http.StatusBadRequest && ne.Status < http.StatusInternalServerError {
			return chain.TxResult{}, err
		}
		return chain.TxResult{}, &chain.OutcomeUnknownError{Hash: hash, Err: err}
	}

	if res.Hash == "" {
		res.Hash = hash
	}

	if res.Code != 0 {
		return chain.TxResult{}, &chain.BroadcastError{
			Stage:     chain.StageCheckTx,
			Hash:      res.Hash,
			Code:      res.Code,
			Codespace: res.Codespace,
			RawLog:    res.RawLog,
		}
	}

	e.evHandler("txn: submit: confirm: hash[%s]", res.Hash)

	confirmed, err := e.confirmer.Confirm(ctx, res.Hash)
	if err != nil {
		return chain.TxResult{}, &chain.OutcomeUnknownError{Hash: res.Hash, Err: err}
	}

	if confirmed.Hash == "" {
		confirmed.Hash = res.Hash
	}

	if !confirmed.Success || confirmed.Code != 0 {
		return chain.TxResult{}, &chain.BroadcastError{
			Stage:     chain.StageDeliverTx,
			Hash:      confirmed.Hash,
			Code:      confirmed.Code,
			Codespace: confirmed.Codespace,
			RawLog:    confirmed.RawLog,
		}
	}

	return confirmed, nil
}
