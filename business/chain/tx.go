package chain

import (
	"strings"
	"unicode/utf8"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/foundation/signature"
)

// Msg represents a typed message carried by a transaction.
type Msg interface {
	TypeURL() string
}

// MsgSend moves coins between two accounts.
type MsgSend struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      Coins  `json:"amount"`
}

// TypeURL implements the Msg interface.
func (MsgSend) TypeURL() string { return "/cosmos.bank.v1beta1.MsgSend" }


// MsgDelegate binds stake from a delegator to a validator.
type MsgDelegate struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
	Amount           Coin   `json:"amount"`
}

// TypeURL implements the Msg interface.
func (MsgDelegate) TypeURL() string { return "/cosmos.staking.v1beta1.MsgDelegate" }


// MsgWithdrawDelegatorReward claims the rewards of one delegation.
type MsgWithdrawDelegatorReward struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
}

// TypeURL implements the Msg interface.
func (MsgWithdrawDelegatorReward) TypeURL() string {
	return "/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward"
}

// CommissionRates describes the commission a validator charges.
type CommissionRates struct {
	Rate          math.LegacyDec `json:"rate"`
	MaxRate       math.LegacyDec `json:"max_rate"`
	MaxChangeRate math.LegacyDec `json:"max_change_rate"`
}

// MsgCreateValidator describes a new validator. It is only ever simulated.
type MsgCreateValidator struct {
	Moniker           string          `json:"moniker"`
	Commission        CommissionRates `json:"commission"`
	MinSelfDelegation math.Int        `json:"min_self_delegation"`
	DelegatorAddress  string          `json:"delegator_address"`
	ValidatorAddress  string          `json:"validator_address"`
	Value             Coin            `json:"value"`
}

// TypeURL implements the Msg interface.
func (MsgCreateValidator) TypeURL() string { return "/cosmos.staking.v1beta1.MsgCreateValidator" }


// =============================================================================

// Fee represents the fee attached to a transaction.
type Fee struct {
	Amount Coins  `json:"amount"`
	Gas    uint64 `json:"gas,string"`
}

// FeePolicy is the fixed fee applied to every transaction.
type FeePolicy struct {
	Denom  string
	Amount math.Int
	Gas    uint64
}

// DefaultFeePolicy returns the flat fee used when nothing is configured.
func DefaultFeePolicy(denom string) FeePolicy {
	return FeePolicy{
		Denom:  denom,
		Amount: math.NewInt(DefaultFeeAmount),
		Gas:    DefaultGas,
	}
}

// Fee returns the fee the policy attaches to a transaction.
func (fp FeePolicy) Fee() Fee {
	return Fee{
		Amount: Coins{NewCoin(fp.Denom, fp.Amount)},
		Gas:    fp.Gas,
	}
}

// =============================================================================

// TxRequest represents everything needed to sign a transaction.
type TxRequest struct {
	Sender        Account
	Msgs          []Msg
	Fee           Fee
	Memo          string
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// =============================================================================

// SignedTx represents a signed transaction. It is immutable; the request is
// copied when the value is constructed and every accessor returns a copy.
type SignedTx struct {
	req       TxRequest
	pubKey    []byte
	signature []byte
}

// NewSignedTx constructs a signed transaction from the request and the
// signature produced over its sign bytes.
func NewSignedTx(req TxRequest, pubKey []byte, sig []byte) SignedTx {
	return SignedTx{
		req:       cloneRequest(req),
		pubKey:    cloneBytes(pubKey),
		signature: cloneBytes(sig),
	}
}

// Request returns a copy of the signed request.
func (tx SignedTx) Request() TxRequest {
	return cloneRequest(tx.req)
}

// PubKey returns the public key of the signer.
func (tx SignedTx) PubKey() []byte {
	return cloneBytes(tx.pubKey)
}

// Signature returns the [R|S] signature.
func (tx SignedTx) Signature() []byte {
	return cloneBytes(tx.signature)
}

// Verify checks the signature against the sign bytes the handler produces
// for the request.
func (tx SignedTx) Verify(handler SignModeHandler) error {
	signBytes, err := handler.SignBytes(tx.req)
	if err != nil {
		return err
	}
	return signature.VerifySignature(tx.pubKey, signBytes, tx.signature)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneCoins(cs Coins) Coins {
	if cs == nil {
		return nil
	}
	out := make(Coins, len(cs))
	copy(out, cs)
	return out
}

func cloneRequest(req TxRequest) TxRequest {
	req.Sender.PubKey = cloneBytes(req.Sender.PubKey)
	req.Fee.Amount = cloneCoins(req.Fee.Amount)

	msgs := make([]Msg, len(req.Msgs))
	for i, msg := range req.Msgs {
		switch m := msg.(type) {
		case MsgSend:
			m.Amount = cloneCoins(m.Amount)
			msgs[i] = m
		default:
			msgs[i] = msg
		}
	}
	req.Msgs = msgs

	return req
}

// =============================================================================

// TxResult represents the terminal result of one broadcast attempt.
type TxResult struct {
	Hash      string
	Success   bool
	Code      uint32
	Codespace string
	RawLog    string
	Height    int64
	GasUsed   int64
	GasWanted int64
}

// =============================================================================

// TruncateMemo shortens the memo to at most limit bytes without splitting a
// multi-byte character. A limit of zero or less means no limit.
func TruncateMemo(memo string, limit int) string {
	if limit <= 0 || len(memo) <= limit {
		return memo
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(memo[cut]) {
		cut--
	}

	return memo[:cut]
}

// FormatAmount renders an amount in minor units as a decimal number of whole
// tokens, where exponent is the number of decimal places of the denom.
func FormatAmount(amount math.Int, exponent int) string {
	if amount.IsNil() {
		amount = math.ZeroInt()
	}

	if exponent <= 0 {
		return amount.String()
	}

	unit := math.NewIntWithDecimal(1, exponent)
	whole := amount.Quo(unit)
	frac := amount.Abs().Mod(unit)

	if frac.IsZero() {
		return whole.String()
	}

	digits := frac.String()
	digits = strings.Repeat("0", exponent-len(digits)) + digits
	digits = strings.TrimRight(digits, "0")

	sign := ""
	if amount.IsNegative() && whole.IsZero() {
		sign = "-"
	}

	return sign + whole.String() + "." + digits
}
