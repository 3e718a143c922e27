package lcd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/tidwall/gjson"
)

// Balances returns the balances held by the address.
func (c *Client) Balances(ctx context.Context, address string) (chain.Coins, error) {
	endpoint := "/cosmos/bank/v1beta1/balances/" + url.PathEscape(address)

	var coins chain.Coins
	var key string
	for {
		query := url.Values{"pagination.limit": {strconv.Itoa(c.pageLimit)}}
		if key != "" {
			query.Set("pagination.key", key)
		}

		var resp balancesResponse
		if err := c.send(ctx, http.MethodGet, endpoint, query, nil, &resp); err != nil {
			return nil, fmt.Errorf("balances: %w", err)
		}

		page, err := toCoins("balance", resp.Balances)
		if err != nil {
			return nil, fmt.Errorf("balances: %w", err)
		}
		coins = append(coins, page...)

		if resp.Pagination.NextKey == nil || *resp.Pagination.NextKey == "" {
			break
		}
		key = *resp.Pagination.NextKey
	}

	return coins, nil
}

// Validators returns the validators in the specified status ordered by
// descending delegated tokens. The zero status returns every validator.
func (c *Client) Validators(ctx context.Context, status chain.BondStatus) ([]chain.Validator, error) {
	const endpoint = "/cosmos/staking/v1beta1/validators"

	var vals []chain.Validator
	var key string
	for {
		query := url.Values{"pagination.limit": {strconv.Itoa(c.pageLimit)}}
		if !status.IsZero() {
			query.Set("status", status.Name())
		}
		if key != "" {
			query.Set("pagination.key", key)
		}

		var resp validatorsResponse
		if err := c.send(ctx, http.MethodGet, endpoint, query, nil, &resp); err != nil {
			return nil, fmt.Errorf("validators: %w", err)
		}

		for _, v := range resp.Validators {
			val, err := toValidator(v)
			if err != nil {
				return nil, fmt.Errorf("validators: %w", err)
			}
			vals = append(vals, val)
		}

		if resp.Pagination.NextKey == nil || *resp.Pagination.NextKey == "" {
			break
		}
		key = *resp.Pagination.NextKey
	}

	c.evHandler("lcd: validators: status[%s] count[%d]", status, len(vals))

	chain.SortByTokens(vals)

	return vals, nil
}

// Validator returns the validator with the operator address.
func (c *Client) Validator(ctx context.Context, address string) (chain.Validator, error) {
	endpoint := "/cosmos/staking/v1beta1/validators/" + url.PathEscape(address)

	var resp validatorResponse
	if err := c.send(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		if isNotFound(err) {
			return chain.Validator{}, &chain.ValidatorNotFoundError{Address: address}
		}
		return chain.Validator{}, fmt.Errorf("validator: %w", err)
	}

	if resp.Validator.OperatorAddress == "" {
		return chain.Validator{}, &chain.ValidatorNotFoundError{Address: address}
	}

	return toValidator(resp.Validator)
}

// Delegation returns the delegation from the delegator to the validator. The
// boolean is false when no delegation exists.
func (c *Client) Delegation(ctx context.Context, delegator string, validator string) (chain.Delegation, bool, error) {
	endpoint := fmt.Sprintf("/cosmos/staking/v1beta1/validators/%s/delegations/%s", url.PathEscape(validator), url.PathEscape(delegator))

	var resp delegationResponse
	if err := c.send(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		if isNotFound(err) {
			return chain.Delegation{}, false, nil
		}
		return chain.Delegation{}, false, fmt.Errorf("delegation: %w", err)
	}

	dr := resp.DelegationResponse
	if dr.Delegation.ValidatorAddress == "" {
		return chain.Delegation{}, false, nil
	}

	shares, err := toDec("shares", dr.Delegation.Shares)
	if err != nil {
		return chain.Delegation{}, false, fmt.Errorf("delegation: %w", err)
	}

	amount, err := toInt("balance", dr.Balance.Amount)
	if err != nil {
		return chain.Delegation{}, false, fmt.Errorf("delegation: %w", err)
	}

	del := chain.Delegation{
		DelegatorAddress: dr.Delegation.DelegatorAddress,
		ValidatorAddress: dr.Delegation.ValidatorAddress,
		Shares:           shares,
		Balance:          chain.NewCoin(dr.Balance.Denom, amount),
	}

	return del, true, nil
}

// PendingRewards returns the rewards pending for the delegator in the order
// the chain reports them. Validators with nothing claimable are skipped.
func (c *Client) PendingRewards(ctx context.Context, delegator string) ([]chain.Reward, error) {
	endpoint := fmt.Sprintf("/cosmos/distribution/v1beta1/delegators/%s/rewards", url.PathEscape(delegator))

	var resp rewardsResponse
	if err := c.send(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}

	rewards := make([]chain.Reward, 0, len(resp.Rewards))
	for _, r := range resp.Rewards {
		amounts, err := toDecCoins("reward", r.Reward)
		if err != nil {
			return nil, fmt.Errorf("rewards: validator %s: %w", r.ValidatorAddress, err)
		}

		if len(amounts) == 0 {
			continue
		}

		rewards = append(rewards, chain.Reward{ValidatorAddress: r.ValidatorAddress, Amounts: amounts})
	}

	return rewards, nil
}

// Pool returns the staking pool.
func (c *Client) Pool(ctx context.Context) (chain.Pool, error) {
	var resp poolResponse
	if err := c.send(ctx, http.MethodGet, "/cosmos/staking/v1beta1/pool", nil, nil, &resp); err != nil {
		return chain.Pool{}, fmt.Errorf("pool: %w", err)
	}

	bonded, err := toInt("bonded_tokens", resp.Pool.BondedTokens)
	if err != nil {
		return chain.Pool{}, fmt.Errorf("pool: %w", err)
	}

	notBonded, err := toInt("not_bonded_tokens", resp.Pool.NotBondedTokens)
	if err != nil {
		return chain.Pool{}, fmt.Errorf("pool: %w", err)
	}

	return chain.Pool{BondedTokens: bonded, NotBondedTokens: notBonded}, nil
}

// Account returns the signing metadata for the address. Vesting accounts
// nest the base account, so the known shapes are probed in order.
func (c *Client) Account(ctx context.Context, address string) (chain.AccountInfo, error) {
	endpoint := "/cosmos/auth/v1beta1/accounts/" + url.PathEscape(address)

	data, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return chain.AccountInfo{}, fmt.Errorf("account: %w", err)
	}

	paths := []string{
		"account",
		"account.base_account",
		"account.base_vesting_account.base_account",
	}

	for _, path := range paths {
		base := gjson.GetBytes(data, path)
		if !base.Get("account_number").Exists() {
			continue
		}

		info := chain.AccountInfo{
			Address:       base.Get("address").String(),
			AccountNumber: base.Get("account_number").Uint(),
			Sequence:      base.Get("sequence").Uint(),
		}
		if info.Address == "" {
			info.Address = address
		}

		return info, nil
	}

	return chain.AccountInfo{}, fmt.Errorf("account %s: unsupported account type %q", address, gjson.GetBytes(data, "account.@type").String())
}
