// Package faucet requests test tokens for an account from a faucet service.
package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/google/uuid"
)

// Config represents the settings for the faucet client.
type Config struct {
	URL       string
	Denom     string
	Timeout   time.Duration
	Client    *http.Client
	EvHandler chain.EventHandler
}

// Client requests funds from a faucet.
type Client struct {
	url       string
	denom     string
	http      *http.Client
	evHandler chain.EventHandler
}

// New constructs a faucet client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, chain.NewConfigurationError("faucet.url", "no faucet url configured")
	}

	if cfg.Denom == "" {
		return nil, chain.NewConfigurationError("network.denom", "no denom configured")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	c := Client{
		url:       cfg.URL,
		denom:     cfg.Denom,
		http:      client,
		evHandler: ev,
	}

	return &c, nil
}

// Error represents a failed faucet request. It's never fatal; the account
// can still be funded by hand.
type Error struct {
	Address string
	URL     string
	Err     error
}

// Error implements the error interface.
func (fe *Error) Error() string {
	return fmt.Sprintf("faucet request for %s: %s", fe.Address, fe.Err)
}

// Unwrap returns the underlying error.
func (fe *Error) Unwrap() error {
	return fe.Err
}

// Hint returns the manual action the operator can take instead.
func (fe *Error) Hint() string {
	return fmt.Sprintf("request tokens manually at %s for address %s", fe.URL, fe.Address)
}

// GetError returns a copy of the Error pointer.
func GetError(err error) *Error {
	var fe *Error
	if !errors.As(err, &fe) {
		return nil
	}
	return fe
}

type request struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
}

// Request asks the faucet to fund the address. It returns the trace id
// attached to the request.
func (c *Client) Request(ctx context.Context, address string) (string, error) {
	traceID := uuid.NewString()

	data, err := json.Marshal(request{Address: address, Denom: c.denom})
	if err != nil {
		return traceID, &Error{Address: address, URL: c.url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return traceID, &Error{Address: address, URL: c.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", traceID)

	c.evHandler("faucet: request: traceid[%s] address[%s]", traceID, address)

	resp, err := c.http.Do(req)
	if err != nil {
		return traceID, &Error{Address: address, URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return traceID, &Error{
			Address: address,
			URL:     c.url,
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	c.evHandler("faucet: request: traceid[%s] status[%d]", traceID, resp.StatusCode)

	return traceID, nil
}
