package txn

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/foundation/validate"
	"github.com/ardanlabs/staking/foundation/wallet"
)

// Kind represents the type of operation to execute.
type Kind string

// Set of supported operations.
const (
	KindTransfer        Kind = "transfer"
	KindDelegate        Kind = "delegate"
	KindWithdrawRewards Kind = "withdraw-rewards"
	KindCreateValidator Kind = "create-validator-simulation"
)

// Operation represents a single operation for the executor. Which fields are
// used depends on the kind.
type Operation struct {
	Kind       Kind           `json:"kind" validate:"oneof=transfer delegate withdraw-rewards create-validator-simulation"`
	To         string         `json:"to" validate:"required_if=Kind transfer"`
	Validator  string         `json:"validator" validate:"required_if=Kind delegate,required_if=Kind withdraw-rewards"`
	Amount     math.Int       `json:"amount"`
	Denom      string         `json:"denom"`
	Memo       string         `json:"memo"`
	Moniker    string         `json:"moniker" validate:"required_if=Kind create-validator-simulation,max=70"`
	Commission math.LegacyDec `json:"commission"`
}

// =============================================================================

// OutcomeKind distinguishes a real broadcast from a simulation.
type OutcomeKind int

// Set of outcome kinds.
const (
	OutcomeBroadcast OutcomeKind = iota + 1
	OutcomeSimulated
)

// String implements the Stringer interface.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBroadcast:
		return "broadcast"
	case OutcomeSimulated:
		return "simulated"
	}
	return "unknown"
}

// Outcome represents the terminal result of an operation. Result is set for
// broadcasts and Simulation for simulations.
type Outcome struct {
	Kind       OutcomeKind
	Result     chain.TxResult
	Simulation *Simulation
}

// Simulation describes the validator a create-validator operation would
// produce and the steps that must happen outside this system to create it.
type Simulation struct {
	Operator       string
	Delegator      string
	Moniker        string
	SelfDelegation chain.Coin
	Commission     math.LegacyDec
	Msg            chain.MsgCreateValidator
	Steps          []string
}

// offBandSteps are required for real validator onboarding.
var offBandSteps = []string{
	"Run a full node that is synced with the network",
	"Create the validator consensus public key from your node",
	"Submit a create-validator transaction signed by the operator",
	"Keep the node online to participate in consensus",
}

// =============================================================================

func (e *Executor) normalize(op Operation) Operation {
	if op.Denom == "" {
		op.Denom = e.denom
	}

	if op.Amount.IsNil() {
		op.Amount = math.ZeroInt()
	}

	return op
}

// validate checks the shape of the operation without any network calls.
func (e *Executor) validate(acc chain.Account, op Operation) error {
	if err := validate.Check(op); err != nil {
		var fields validate.FieldErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return &chain.InvalidRequestError{Field: fields[0].Field, Reason: fields[0].Err}
		}
		return &chain.InvalidRequestError{Field: "operation", Reason: err.Error()}
	}

	valoper := wallet.ValoperPrefix(e.prefix)

	switch op.Kind {
	case KindTransfer:
		if err := wallet.ValidateAddress(op.To, e.prefix); err != nil {
			return &chain.InvalidRequestError{Field: "to", Reason: err.Error()}
		}
		if !op.Amount.IsPositive() {
			return &chain.InvalidRequestError{Field: "amount", Reason: "must be positive"}
		}

	case KindDelegate:
		if err := wallet.ValidateAddress(op.Validator, valoper); err != nil {
			return &chain.InvalidRequestError{Field: "validator", Reason: err.Error()}
		}
		if op.Denom != e.denom {
			return &chain.InvalidRequestError{Field: "denom", Reason: fmt.Sprintf("stake must be %s", e.denom)}
		}
		if op.Amount.LT(math.NewInt(chain.MinDelegation)) {
			return &chain.InvalidRequestError{Field: "amount", Reason: fmt.Sprintf("below the minimum delegation of %d", chain.MinDelegation)}
		}

	case KindWithdrawRewards:
		if err := wallet.ValidateAddress(op.Validator, valoper); err != nil {
			return &chain.InvalidRequestError{Field: "validator", Reason: err.Error()}
		}

	case KindCreateValidator:
		if op.Commission.IsNil() || op.Commission.IsNegative() || op.Commission.GT(math.LegacyOneDec()) {
			return &chain.InvalidRequestError{Field: "commission", Reason: "must be between 0 and 1"}
		}
		if op.Denom != e.denom {
			return &chain.InvalidRequestError{Field: "denom", Reason: fmt.Sprintf("self delegation must be %s", e.denom)}
		}
		if op.Amount.LT(math.NewInt(chain.MinSelfDelegation)) {
			return &chain.InvalidRequestError{Field: "amount", Reason: fmt.Sprintf("below the minimum self delegation of %d", chain.MinSelfDelegation)}
		}

	default:
		return &chain.InvalidRequestError{Field: "kind", Reason: fmt.Sprintf("unknown operation %q", op.Kind)}
	}

	if acc.Address == "" {
		return &chain.InvalidRequestError{Field: "sender", Reason: "account has no address"}
	}

	return nil
}

// message builds the single message carried by the transaction.
func (e *Executor) message(acc chain.Account, op Operation) chain.Msg {
	switch op.Kind {
	case KindTransfer:
		return chain.MsgSend{
			FromAddress: acc.Address,
			ToAddress:   op.To,
			Amount:      chain.Coins{chain.NewCoin(op.Denom, op.Amount)},
		}

	case KindDelegate:
		return chain.MsgDelegate{
			DelegatorAddress: acc.Address,
			ValidatorAddress: op.Validator,
			Amount:           chain.NewCoin(op.Denom, op.Amount),
		}
	}

	return chain.MsgWithdrawDelegatorReward{
		DelegatorAddress: acc.Address,
		ValidatorAddress: op.Validator,
	}
}

// simulate describes the validator the operation would create.
func (e *Executor) simulate(acc chain.Account, op Operation) Simulation {
	operator, err := wallet.ConvertAddress(acc.Address, wallet.ValoperPrefix(e.prefix))
	if err != nil {
		operator = acc.Address
	}

	maxRate := math.LegacyMustNewDecFromStr("0.20")
	if op.Commission.GT(maxRate) {
		maxRate = op.Commission
	}

	msg := chain.MsgCreateValidator{
		Moniker: op.Moniker,
		Commission: chain.CommissionRates{
			Rate:          op.Commission,
			MaxRate:       maxRate,
			MaxChangeRate: math.LegacyMustNewDecFromStr("0.01"),
		},
		MinSelfDelegation: math.OneInt(),
		DelegatorAddress:  acc.Address,
		ValidatorAddress:  operator,
		Value:             chain.NewCoin(op.Denom, op.Amount),
	}

	steps := make([]string, len(offBandSteps))
	copy(steps, offBandSteps)

	sim := Simulation{
		Operator:       operator,
		Delegator:      acc.Address,
		Moniker:        op.Moniker,
		SelfDelegation: msg.Value,
		Commission:     op.Commission,
		Msg:            msg,
		Steps:          steps,
	}

	return sim
}
