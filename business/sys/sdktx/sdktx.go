// Package sdktx encodes transactions in the protobuf TxRaw format the Cosmos
// SDK accepts, signed in SIGN_MODE_DIRECT.
package sdktx

import (
	"context"
	"errors"
	"fmt"

	txsigning "cosmossdk.io/x/tx/signing"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/foundation/signature"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	signingtypes "github.com/cosmos/cosmos-sdk/types/tx/signing"
	authsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distrtypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	"github.com/cosmos/gogoproto/proto"
)

// signMode is the only sign mode the codec produces.
const signMode = signingtypes.SignMode_SIGN_MODE_DIRECT

// Codec builds, signs, and encodes transactions for one address prefix.
// It implements the chain.TxEncoder interface.
type Codec struct {
	txCfg client.TxConfig
}

// New constructs a codec for chains using the bech32 address prefix.
func New(prefix string) (*Codec, error) {
	if prefix == "" {
		return nil, chain.NewConfigurationError("network.addressPrefix", "no address prefix configured")
	}

	reg, err := codectypes.NewInterfaceRegistryWithOptions(codectypes.InterfaceRegistryOptions{
		ProtoFiles: proto.HybridResolver,
		SigningOptions: txsigning.Options{
			AddressCodec:          address.NewBech32Codec(prefix),
			ValidatorAddressCodec: address.NewBech32Codec(prefix + "valoper"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("interface registry: %w", err)
	}

	std.RegisterInterfaces(reg)
	banktypes.RegisterInterfaces(reg)
	stakingtypes.RegisterInterfaces(reg)
	distrtypes.RegisterInterfaces(reg)

	cdc := codec.NewProtoCodec(reg)

	c := Codec{
		txCfg: authtx.NewTxConfig(cdc, []signingtypes.SignMode{signMode}),
	}

	return &c, nil
}

// SignBytes implements the chain.SignModeHandler interface. It returns the
// SIGN_MODE_DIRECT sign doc for the request.
func (c *Codec) SignBytes(req chain.TxRequest) ([]byte, error) {
	builder, err := c.build(req, nil)
	if err != nil {
		return nil, err
	}

	return c.signBytes(req, builder)
}

// Encode implements the chain.TxEncoder interface. The signature must cover
// the sign doc of the request or the transaction is refused.
func (c *Codec) Encode(tx chain.SignedTx) ([]byte, error) {
	req := tx.Request()

	signBytes, err := c.SignBytes(req)
	if err != nil {
		return nil, err
	}

	if err := signature.VerifySignature(tx.PubKey(), signBytes, tx.Signature()); err != nil {
		return nil, fmt.Errorf("verifying signature: %w", err)
	}

	builder, err := c.build(req, tx.Signature())
	if err != nil {
		return nil, err
	}

	txBytes, err := c.txCfg.TxEncoder()(builder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("encoding tx: %w", err)
	}

	return txBytes, nil
}

// Decode parses TxRaw bytes back into a transaction.
func (c *Codec) Decode(txBytes []byte) (authsigning.Tx, error) {
	decoded, err := c.txCfg.TxDecoder()(txBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding tx: %w", err)
	}

	tx, ok := decoded.(authsigning.Tx)
	if !ok {
		return nil, fmt.Errorf("decoded tx %T does not carry signatures", decoded)
	}

	return tx, nil
}

// =============================================================================

// build assembles the transaction. A nil signature leaves an empty signature
// in place so the signer info is part of the auth info that gets signed.
func (c *Codec) build(req chain.TxRequest, sig []byte) (client.TxBuilder, error) {
	if len(req.Sender.PubKey) != 33 {
		return nil, fmt.Errorf("sender %s: public key must be 33 compressed bytes, got %d", req.Sender.Address, len(req.Sender.PubKey))
	}

	msgs := make([]sdk.Msg, len(req.Msgs))
	for i, msg := range req.Msgs {
		m, err := toSDKMsg(msg)
		if err != nil {
			return nil, err
		}
		msgs[i] = m
	}

	builder := c.txCfg.NewTxBuilder()

	if err := builder.SetMsgs(msgs...); err != nil {
		return nil, fmt.Errorf("setting msgs: %w", err)
	}

	builder.SetMemo(req.Memo)
	builder.SetGasLimit(req.Fee.Gas)
	builder.SetFeeAmount(toSDKCoins(req.Fee.Amount))

	sigV2 := signingtypes.SignatureV2{
		PubKey: &secp256k1.PubKey{Key: req.Sender.PubKey},
		Data: &signingtypes.SingleSignatureData{
			SignMode:  signMode,
			Signature: sig,
		},
		Sequence: req.Sequence,
	}

	if err := builder.SetSignatures(sigV2); err != nil {
		return nil, fmt.Errorf("setting signatures: %w", err)
	}

	return builder, nil
}

func (c *Codec) signBytes(req chain.TxRequest, builder client.TxBuilder) ([]byte, error) {
	signerData := authsigning.SignerData{
		Address:       req.Sender.Address,
		ChainID:       req.ChainID,
		AccountNumber: req.AccountNumber,
		Sequence:      req.Sequence,
		PubKey:        &secp256k1.PubKey{Key: req.Sender.PubKey},
	}

	signBytes, err := authsigning.GetSignBytesAdapter(context.Background(), c.txCfg.SignModeHandler(), signMode, signerData, builder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("building sign bytes: %w", err)
	}

	return signBytes, nil
}

// =============================================================================

func toSDKMsg(msg chain.Msg) (sdk.Msg, error) {
	switch m := msg.(type) {
	case chain.MsgSend:
		return &banktypes.MsgSend{
			FromAddress: m.FromAddress,
			ToAddress:   m.ToAddress,
			Amount:      toSDKCoins(m.Amount),
		}, nil

	case chain.MsgDelegate:
		return &stakingtypes.MsgDelegate{
			DelegatorAddress: m.DelegatorAddress,
			ValidatorAddress: m.ValidatorAddress,
			Amount:           sdk.Coin{Denom: m.Amount.Denom, Amount: m.Amount.Amount},
		}, nil

	case chain.MsgWithdrawDelegatorReward:
		return &distrtypes.MsgWithdrawDelegatorReward{
			DelegatorAddress: m.DelegatorAddress,
			ValidatorAddress: m.ValidatorAddress,
		}, nil

	case chain.MsgCreateValidator:
		return nil, errors.New("validator creation is simulated and never encoded")
	}

	return nil, fmt.Errorf("unsupported msg %T", msg)
}

// toSDKCoins drops empty amounts since the chain rejects zero coins.
func toSDKCoins(coins chain.Coins) sdk.Coins {
	out := make(sdk.Coins, 0, len(coins))
	for _, c := range coins {
		if !c.IsPositive() {
			continue
		}
		out = append(out, sdk.Coin{Denom: c.Denom, Amount: c.Amount})
	}
	return out.Sort()
}
