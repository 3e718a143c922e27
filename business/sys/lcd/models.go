package lcd

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
)

type coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type pagination struct {
	NextKey *string `json:"next_key"`
	Total   string  `json:"total"`
}

type balancesResponse struct {
	Balances   []coin     `json:"balances"`
	Pagination pagination `json:"pagination"`
}

type description struct {
	Moniker  string `json:"moniker"`
	Identity string `json:"identity"`
	Website  string `json:"website"`
	Details  string `json:"details"`
}

type commission struct {
	CommissionRates struct {
		Rate          string `json:"rate"`
		MaxRate       string `json:"max_rate"`
		MaxChangeRate string `json:"max_change_rate"`
	} `json:"commission_rates"`
}

type validator struct {
	OperatorAddress string      `json:"operator_address"`
	Jailed          bool        `json:"jailed"`
	Status          string      `json:"status"`
	Tokens          string      `json:"tokens"`
	Description     description `json:"description"`
	Commission      commission  `json:"commission"`
}

type validatorsResponse struct {
	Validators []validator `json:"validators"`
	Pagination pagination  `json:"pagination"`
}

type validatorResponse struct {
	Validator validator `json:"validator"`
}

type delegationResponse struct {
	DelegationResponse struct {
		Delegation struct {
			DelegatorAddress string `json:"delegator_address"`
			ValidatorAddress string `json:"validator_address"`
			Shares           string `json:"shares"`
		} `json:"delegation"`
		Balance coin `json:"balance"`
	} `json:"delegation_response"`
}

type rewardsResponse struct {
	Rewards []struct {
		ValidatorAddress string `json:"validator_address"`
		Reward           []coin `json:"reward"`
	} `json:"rewards"`
}

type poolResponse struct {
	Pool struct {
		NotBondedTokens string `json:"not_bonded_tokens"`
		BondedTokens    string `json:"bonded_tokens"`
	} `json:"pool"`
}

type broadcastRequest struct {
	TxBytes []byte `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

// =============================================================================

// toInt converts an integer string, where an empty value is zero.
func toInt(field string, value string) (math.Int, error) {
	if value == "" {
		return math.ZeroInt(), nil
	}

	n, ok := math.NewIntFromString(value)
	if !ok || n.IsNegative() {
		return math.Int{}, fmt.Errorf("%s: invalid amount %q", field, value)
	}

	return n, nil
}

// toDec converts a decimal string, where an empty value is zero.
func toDec(field string, value string) (math.LegacyDec, error) {
	if value == "" {
		return math.LegacyZeroDec(), nil
	}

	d, err := math.LegacyNewDecFromStr(value)
	if err != nil {
		return math.LegacyDec{}, fmt.Errorf("%s: invalid decimal %q: %w", field, value, err)
	}

	return d, nil
}

func toCoins(field string, cs []coin) (chain.Coins, error) {
	coins := make(chain.Coins, 0, len(cs))
	for _, c := range cs {
		amount, err := toInt(field, c.Amount)
		if err != nil {
			return nil, err
		}
		coins = append(coins, chain.NewCoin(c.Denom, amount))
	}
	return coins, nil
}

// toDecCoins converts decimal coin amounts, truncating to whole minor units.
// Denoms whose amount truncates to zero are dropped.
func toDecCoins(field string, cs []coin) (chain.Coins, error) {
	coins := make(chain.Coins, 0, len(cs))
	for _, c := range cs {
		amount, err := toDec(field, c.Amount)
		if err != nil {
			return nil, err
		}

		n := amount.TruncateInt()
		if !n.IsPositive() {
			continue
		}
		coins = append(coins, chain.NewCoin(c.Denom, n))
	}
	return coins, nil
}

func toValidator(v validator) (chain.Validator, error) {
	status, err := chain.ParseBondStatus(v.Status)
	if err != nil {
		return chain.Validator{}, fmt.Errorf("validator %s: %w", v.OperatorAddress, err)
	}

	tokens, err := toInt("tokens", v.Tokens)
	if err != nil {
		return chain.Validator{}, fmt.Errorf("validator %s: %w", v.OperatorAddress, err)
	}

	rate, err := toDec("commission", v.Commission.CommissionRates.Rate)
	if err != nil {
		return chain.Validator{}, fmt.Errorf("validator %s: %w", v.OperatorAddress, err)
	}

	moniker := strings.TrimSpace(v.Description.Moniker)
	if moniker == "" {
		moniker = "Unknown"
	}

	val := chain.Validator{
		OperatorAddress: v.OperatorAddress,
		Moniker:         moniker,
		Identity:        v.Description.Identity,
		Website:         v.Description.Website,
		Details:         v.Description.Details,
		Commission:      rate,
		Tokens:          tokens,
		Status:          status,
		Jailed:          v.Jailed,
	}

	return val, nil
}
