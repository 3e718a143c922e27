package sdktx_test

import (
	"bytes"
	"testing"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/sys/sdktx"
	"github.com/ardanlabs/staking/foundation/wallet"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distrtypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	mnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	recipient = "cosmos1k397mjcaqvzh9p65vfept60kk0dj8ka6dhv6h9"
	validator = "cosmosvaloper1esweepj7swqv94txm3eyce3kjpg6e74rddmu2y"
)

func newWallet(t *testing.T) *wallet.Wallet {
	w, err := wallet.FromMnemonic(mnemonic, wallet.Params{Prefix: "cosmos", CoinType: wallet.DefaultCoinType})
	if err != nil {
		t.Fatalf("Should be able to derive the wallet: %s", err)
	}
	return w
}

func newRequest(w *wallet.Wallet, msgs ...chain.Msg) chain.TxRequest {
	return chain.TxRequest{
		Sender:        chain.Account{Address: w.Address(), PubKey: w.PubKey()},
		Msgs:          msgs,
		Fee:           chain.DefaultFeePolicy("uatom").Fee(),
		Memo:          "Transfer",
		ChainID:       "theta-testnet-001",
		AccountNumber: 7,
		Sequence:      3,
	}
}

// =============================================================================

func Test_EncodeDirect(t *testing.T) {
	w := newWallet(t)

	codec, err := sdktx.New("cosmos")
	if err != nil {
		t.Fatalf("Should be able to construct the codec: %s", err)
	}

	req := newRequest(w,
		chain.MsgSend{FromAddress: w.Address(), ToAddress: recipient, Amount: chain.Coins{chain.NewInt64Coin("uatom", 100)}},
		chain.MsgDelegate{DelegatorAddress: w.Address(), ValidatorAddress: validator, Amount: chain.NewInt64Coin("uatom", 2000)},
		chain.MsgWithdrawDelegatorReward{DelegatorAddress: w.Address(), ValidatorAddress: validator},
	)

	t.Log("Given the need to encode a signed transaction for the chain.")
	{
		signBytes, err := codec.SignBytes(req)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the sign doc: %s", failed, err)
		}

		again, err := codec.SignBytes(req)
		if err != nil || !bytes.Equal(signBytes, again) {
			t.Fatalf("\t%s\tShould build the same sign doc twice: %v", failed, err)
		}
		t.Logf("\t%s\tShould build a deterministic sign doc.", success)

		sig, err := w.Sign(signBytes)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}

		tx := chain.NewSignedTx(req, w.PubKey(), sig)

		if err := tx.Verify(codec); err != nil {
			t.Fatalf("\t%s\tShould verify against the codec sign doc: %s", failed, err)
		}

		txBytes, err := codec.Encode(tx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode: %s", failed, err)
		}

		// TxRaw field 1 is the body bytes.
		if txBytes[0] != 0x0a {
			t.Fatalf("\t%s\tShould start with the TxRaw body tag, got %#x.", failed, txBytes[0])
		}
		t.Logf("\t%s\tShould encode a protobuf TxRaw.", success)

		decoded, err := codec.Decode(txBytes)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode with the SDK decoder: %s", failed, err)
		}

		msgs := decoded.GetMsgs()
		if len(msgs) != 3 {
			t.Fatalf("\t%s\tShould decode 3 msgs, got %d.", failed, len(msgs))
		}

		send, ok := msgs[0].(*banktypes.MsgSend)
		if !ok || send.ToAddress != recipient || !send.Amount.AmountOf("uatom").Equal(math.NewInt(100)) {
			t.Fatalf("\t%s\tShould decode the send: %+v", failed, msgs[0])
		}

		del, ok := msgs[1].(*stakingtypes.MsgDelegate)
		if !ok || del.ValidatorAddress != validator || !del.Amount.Amount.Equal(math.NewInt(2000)) {
			t.Fatalf("\t%s\tShould decode the delegation: %+v", failed, msgs[1])
		}

		if _, ok := msgs[2].(*distrtypes.MsgWithdrawDelegatorReward); !ok {
			t.Fatalf("\t%s\tShould decode the reward withdrawal: %+v", failed, msgs[2])
		}
		t.Logf("\t%s\tShould decode the protobuf msgs.", success)

		if decoded.GetMemo() != "Transfer" || decoded.GetGas() != chain.DefaultGas {
			t.Fatalf("\t%s\tShould decode the memo and gas: %q %d", failed, decoded.GetMemo(), decoded.GetGas())
		}

		if !decoded.GetFee().AmountOf("uatom").Equal(math.NewInt(chain.DefaultFeeAmount)) {
			t.Fatalf("\t%s\tShould decode the fee: %s", failed, decoded.GetFee())
		}
		t.Logf("\t%s\tShould decode the memo, gas, and fee.", success)

		sigs, err := decoded.GetSignaturesV2()
		if err != nil || len(sigs) != 1 {
			t.Fatalf("\t%s\tShould decode one signature: %v", failed, err)
		}

		if sigs[0].Sequence != 3 {
			t.Fatalf("\t%s\tShould carry the sequence, got %d.", failed, sigs[0].Sequence)
		}

		pub, ok := sigs[0].PubKey.(*secp256k1.PubKey)
		if !ok || !bytes.Equal(pub.Key, w.PubKey()) {
			t.Fatalf("\t%s\tShould carry the secp256k1 public key: %v", failed, sigs[0].PubKey)
		}

		if !pub.VerifySignature(signBytes, sig) {
			t.Fatalf("\t%s\tShould verify with the SDK public key.", failed)
		}
		t.Logf("\t%s\tShould carry a signature the chain can verify.", success)
	}
}

func Test_EncodeRejects(t *testing.T) {
	w := newWallet(t)

	codec, err := sdktx.New("cosmos")
	if err != nil {
		t.Fatalf("Should be able to construct the codec: %s", err)
	}

	req := newRequest(w, chain.MsgWithdrawDelegatorReward{DelegatorAddress: w.Address(), ValidatorAddress: validator})

	t.Log("Given the need to refuse transactions the chain would not accept.")
	{
		signBytes, err := codec.SignBytes(req)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the sign doc: %s", failed, err)
		}

		sig, err := w.Sign(signBytes)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}

		other := req
		other.Sequence = 4

		if _, err := codec.Encode(chain.NewSignedTx(other, w.PubKey(), sig)); err == nil {
			t.Fatalf("\t%s\tShould refuse a signature over another sign doc.", failed)
		}
		t.Logf("\t%s\tShould refuse a signature over another sign doc.", success)

		create := newRequest(w, chain.MsgCreateValidator{Moniker: "node"})
		if _, err := codec.SignBytes(create); err == nil {
			t.Fatalf("\t%s\tShould refuse to encode a validator creation.", failed)
		}
		t.Logf("\t%s\tShould refuse to encode a validator creation.", success)
	}

	if _, err := sdktx.New(""); !chain.IsConfigurationError(err) {
		t.Fatalf("\t%s\tShould require an address prefix, got %v.", failed, err)
	}
}
