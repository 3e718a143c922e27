package lcd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/tidwall/gjson"
)

// Broadcast submits the encoded transaction in sync mode. The result carries
// the admission check; a non zero code means the chain rejected it.
func (c *Client) Broadcast(ctx context.Context, txBytes []byte) (chain.TxResult, error) {
	const endpoint = "/cosmos/tx/v1beta1/txs"

	req := broadcastRequest{
		TxBytes: txBytes,
		Mode:    "BROADCAST_MODE_SYNC",
	}

	data, err := c.do(ctx, http.MethodPost, endpoint, nil, req)
	if err != nil {
		return chain.TxResult{}, fmt.Errorf("broadcast: %w", err)
	}

	resp := gjson.GetBytes(data, "tx_response")
	if !resp.Get("txhash").Exists() {
		return chain.TxResult{}, &chain.NetworkError{Op: http.MethodPost, URL: endpoint, Err: fmt.Errorf("response carries no tx hash")}
	}

	res := toTxResult(resp)

	c.evHandler("lcd: broadcast: hash[%s] code[%d]", res.Hash, res.Code)

	return res, nil
}

// Tx returns the result of an included transaction. If the transaction is
// not known to the node yet, chain.ErrTxPending is returned.
func (c *Client) Tx(ctx context.Context, hash string) (chain.TxResult, error) {
	endpoint := "/cosmos/tx/v1beta1/txs/" + url.PathEscape(hash)

	data, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		if isNotFound(err) {
			return chain.TxResult{}, fmt.Errorf("tx %s: %w", hash, chain.ErrTxPending)
		}
		return chain.TxResult{}, fmt.Errorf("tx: %w", err)
	}

	resp := gjson.GetBytes(data, "tx_response")
	if !resp.Exists() || resp.Get("height").Int() == 0 {
		return chain.TxResult{}, fmt.Errorf("tx %s: %w", hash, chain.ErrTxPending)
	}

	return toTxResult(resp), nil
}

func toTxResult(resp gjson.Result) chain.TxResult {
	code := uint32(resp.Get("code").Uint())

	return chain.TxResult{
		Hash:      strings.ToUpper(resp.Get("txhash").String()),
		Success:   code == 0,
		Code:      code,
		Codespace: resp.Get("codespace").String(),
		RawLog:    resp.Get("raw_log").String(),
		Height:    resp.Get("height").Int(),
		GasUsed:   resp.Get("gas_used").Int(),
		GasWanted: resp.Get("gas_wanted").Int(),
	}
}
