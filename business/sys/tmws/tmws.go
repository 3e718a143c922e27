// Package tmws confirms transaction inclusion by subscribing to the Tx event
// stream of a CometBFT node over its websocket endpoint.
package tmws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// Config represents the settings for the websocket confirmer.
type Config struct {
	RPCEndpoint string
	Timeout     time.Duration
	Fallback    chain.Confirmer
	Dialer      *websocket.Dialer
	EvHandler   chain.EventHandler
}

// Confirmer waits for a transaction's Tx event. A transaction included before
// the subscription is established produces no event, so when the timeout
// elapses the fallback confirmer, if any, is asked instead.
type Confirmer struct {
	endpoint  string
	timeout   time.Duration
	fallback  chain.Confirmer
	dialer    *websocket.Dialer
	evHandler chain.EventHandler
}

// New constructs a websocket confirmer for the RPC endpoint.
func New(cfg Config) (*Confirmer, error) {
	endpoint, err := websocketURL(cfg.RPCEndpoint)
	if err != nil {
		return nil, chain.NewConfigurationError("network.rpcEndpoint", "%s", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	c := Confirmer{
		endpoint:  endpoint,
		timeout:   timeout,
		fallback:  cfg.Fallback,
		dialer:    dialer,
		evHandler: ev,
	}

	return &c, nil
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	ID      string         `json:"id"`
	Params  map[string]any `json:"params"`
}

// Confirm implements the chain.Confirmer interface.
func (c *Confirmer) Confirm(ctx context.Context, hash string) (chain.TxResult, error) {
	hash = strings.ToUpper(hash)

	res, err := c.subscribe(ctx, hash)
	if err == nil {
		return res, nil
	}

	if c.fallback != nil && ctx.Err() == nil {
		c.evHandler("tmws: confirm: hash[%s]: falling back: %s", hash, err)
		return c.fallback.Confirm(ctx, hash)
	}

	return chain.TxResult{}, err
}

func (c *Confirmer) subscribe(ctx context.Context, hash string) (chain.TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return chain.TxResult{}, &chain.NetworkError{Op: "DIAL", URL: c.endpoint, Err: err}
	}
	defer conn.Close()

	// Unblock the reader when the context is done.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	id := uuid.NewString()
	query := fmt.Sprintf("tm.event='Tx' AND tx.hash='%s'", hash)

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "subscribe",
		ID:      id,
		Params:  map[string]any{"query": query},
	}

	if err := conn.WriteJSON(req); err != nil {
		return chain.TxResult{}, &chain.NetworkError{Op: "SUBSCRIBE", URL: c.endpoint, Err: err}
	}

	c.evHandler("tmws: subscribe: id[%s] hash[%s]", id, hash)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return chain.TxResult{}, fmt.Errorf("tx %s: %w: %w", hash, chain.ErrTxPending, ctx.Err())
			}
			return chain.TxResult{}, &chain.NetworkError{Op: "READ", URL: c.endpoint, Err: err}
		}

		doc := gjson.ParseBytes(msg)
		if doc.Get("id").String() != id {
			continue
		}

		if e := doc.Get("error"); e.Exists() {
			return chain.TxResult{}, &chain.NetworkError{
				Op:  "SUBSCRIBE",
				URL: c.endpoint,
				Err: errors.New(e.Get("message").String() + ": " + e.Get("data").String()),
			}
		}

		txr := doc.Get("result.data.value.TxResult")
		if !txr.Exists() {
			continue
		}

		c.unsubscribe(conn, query)

		code := uint32(txr.Get("result.code").Uint())

		res := chain.TxResult{
			Hash:      hash,
			Success:   code == 0,
			Code:      code,
			Codespace: txr.Get("result.codespace").String(),
			RawLog:    txr.Get("result.log").String(),
			Height:    txr.Get("height").Int(),
			GasUsed:   txr.Get("result.gas_used").Int(),
			GasWanted: txr.Get("result.gas_wanted").Int(),
		}

		return res, nil
	}
}

func (c *Confirmer) unsubscribe(conn *websocket.Conn, query string) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "unsubscribe",
		ID:      uuid.NewString(),
		Params:  map[string]any{"query": query},
	}

	if err := conn.WriteJSON(req); err != nil {
		c.evHandler("tmws: unsubscribe: ERROR: %s", err)
	}
}

// websocketURL converts an RPC endpoint into its websocket address.
func websocketURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing rpc endpoint: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported rpc endpoint scheme %q", u.Scheme)
	}

	if !strings.HasSuffix(u.Path, "/websocket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/websocket"
	}

	return u.String(), nil
}
