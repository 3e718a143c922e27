package chain

import (
	"fmt"
	"slices"
	"strings"

	"cosmossdk.io/math"
)

// Coin represents an amount of a single denom in minor units.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

// NewCoin constructs a coin. A nil amount is treated as zero.
func NewCoin(denom string, amount math.Int) Coin {
	if amount.IsNil() {
		amount = math.ZeroInt()
	}
	return Coin{Denom: denom, Amount: amount}
}

// NewInt64Coin constructs a coin from an int64 amount.
func NewInt64Coin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: math.NewInt(amount)}
}

// IsPositive reports whether the amount is greater than zero.
func (c Coin) IsPositive() bool {
	return !c.Amount.IsNil() && c.Amount.IsPositive()
}

// String implements the Stringer interface.
func (c Coin) String() string {
	if c.Amount.IsNil() {
		return "0" + c.Denom
	}
	return c.Amount.String() + c.Denom
}

// Coins represents a set of coins with distinct denoms.
type Coins []Coin

// AmountOf returns the amount held in the denom, zero if absent.
func (cs Coins) AmountOf(denom string) math.Int {
	for _, c := range cs {
		if c.Denom == denom && !c.Amount.IsNil() {
			return c.Amount
		}
	}
	return math.ZeroInt()
}

// String implements the Stringer interface.
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// =============================================================================

// Account represents the public identity of a signing account.
type Account struct {
	Address string
	PubKey  []byte
}

// AccountInfo represents the signing metadata the chain keeps for an account.
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// Validator represents a snapshot of a validator at query time.
type Validator struct {
	OperatorAddress string
	Moniker         string
	Identity        string
	Website         string
	Details         string
	Commission      math.LegacyDec
	Tokens          math.Int
	Status          BondStatus
	Jailed          bool
}

// Delegation represents stake bound from a delegator to a validator.
type Delegation struct {
	DelegatorAddress string
	ValidatorAddress string
	Shares           math.LegacyDec
	Balance          Coin
}

// Reward represents the rewards pending for a delegator on one validator.
type Reward struct {
	ValidatorAddress string
	Amounts          Coins
}

// Pool represents the staking pool of the chain.
type Pool struct {
	BondedTokens    math.Int
	NotBondedTokens math.Int
}

// SortByTokens orders the validators by descending delegated tokens. Ties
// keep their original order.
func SortByTokens(vals []Validator) {
	slices.SortStableFunc(vals, func(a, b Validator) int {
		return tokensOf(b).BigInt().Cmp(tokensOf(a).BigInt())
	})
}

func tokensOf(v Validator) math.Int {
	if v.Tokens.IsNil() {
		return math.ZeroInt()
	}
	return v.Tokens
}

// =============================================================================

// BondStatus represents the closed set of validator states.
type BondStatus struct {
	name  string
	label string
}

// Set of known bond statuses.
var (
	StatusBonded    = BondStatus{"BOND_STATUS_BONDED", "bonded"}
	StatusUnbonding = BondStatus{"BOND_STATUS_UNBONDING", "unbonding"}
	StatusUnbonded  = BondStatus{"BOND_STATUS_UNBONDED", "unbonded"}
)

var statuses = map[string]BondStatus{
	StatusBonded.name:     StatusBonded,
	StatusUnbonding.name:  StatusUnbonding,
	StatusUnbonded.name:   StatusUnbonded,
	StatusBonded.label:    StatusBonded,
	StatusUnbonding.label: StatusUnbonding,
	StatusUnbonded.label:  StatusUnbonded,
}

// ParseBondStatus parses the string value, accepting the chain's enum name
// or the short label, and returns a bond status if one exists.
func ParseBondStatus(value string) (BondStatus, error) {
	key := strings.TrimSpace(value)
	if !strings.HasPrefix(key, "BOND_STATUS_") {
		key = strings.ToLower(key)
	}

	status, exists := statuses[key]
	if !exists {
		return BondStatus{}, fmt.Errorf("invalid bond status %q", value)
	}

	return status, nil
}

// Name returns the chain's name for the status.
func (s BondStatus) Name() string {
	return s.name
}

// String returns the short label for the status.
func (s BondStatus) String() string {
	return s.label
}

// IsZero reports whether the status is the zero value, which is used to
// request validators in any state.
func (s BondStatus) IsZero() bool {
	return s.name == ""
}

// Equal provides support for the go-cmp package and testing.
func (s BondStatus) Equal(s2 BondStatus) bool {
	return s.name == s2.name
}
