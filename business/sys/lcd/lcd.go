// Package lcd implements the chain queries and transaction submission over
// the Cosmos SDK REST gateway (LCD).
package lcd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/tidwall/gjson"
)

// codeNotFound is the gRPC status code the gateway reports for missing records.
const codeNotFound = 5

// Config represents the settings for the REST client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	PageLimit int
	Client    *http.Client
	EvHandler chain.EventHandler
}

// Client provides access to the REST gateway of a node.
type Client struct {
	baseURL   string
	pageLimit int
	http      *http.Client
	evHandler chain.EventHandler
}

// New constructs a client for the specified gateway.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, chain.NewConfigurationError("network.restEndpoint", "invalid url %q", cfg.BaseURL)
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

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 200
	}

	c := Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		pageLimit: pageLimit,
		http:      client,
		evHandler: ev,
	}

	return &c, nil
}

// =============================================================================

// apiError represents the error document returned by the gateway.
type apiError struct {
	Code    int64
	Message string
}

// Error implements the error interface.
func (ae *apiError) Error() string {
	if ae.Message == "" {
		return fmt.Sprintf("code %d", ae.Code)
	}
	return ae.Message
}

// isNotFound reports whether the gateway said the record does not exist.
func isNotFound(err error) bool {
	var ne *chain.NetworkError
	if !errors.As(err, &ne) {
		return false
	}

	if ne.Status == http.StatusNotFound {
		return true
	}

	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Code == codeNotFound
	}

	return false
}

// send performs the request and decodes the response into dataRecv.
func (c *Client) send(ctx context.Context, method string, endpoint string, query url.Values, dataSend any, dataRecv any) error {
	data, err := c.do(ctx, method, endpoint, query, dataSend)
	if err != nil {
		return err
	}

	if dataRecv == nil {
		return nil
	}

	if err := json.Unmarshal(data, dataRecv); err != nil {
		return &chain.NetworkError{Op: method, URL: endpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}

// do performs the request and returns the raw response body.
func (c *Client) do(ctx context.Context, method string, endpoint string, query url.Values, dataSend any) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &chain.NetworkError{Op: method, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.evHandler("lcd: send: %s %s", method, endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &chain.NetworkError{Op: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &chain.NetworkError{Op: method, URL: endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		ae := apiError{
			Code:    gjson.GetBytes(data, "code").Int(),
			Message: gjson.GetBytes(data, "message").String(),
		}
		if ae.Message == "" {
			ae.Message = strings.TrimSpace(string(data))
		}
		return nil, &chain.NetworkError{Op: method, URL: endpoint, Status: resp.StatusCode, Err: &ae}
	}

	return data, nil
}
