package wallet_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ardanlabs/staking/foundation/signature"
	"github.com/ardanlabs/staking/foundation/wallet"
	"github.com/btcsuite/btcd/btcec/v2"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	address  = "cosmos19rl4cm2hmr8afy4kldpxz3fka4jguq0auqdal4"
	pubHex   = "024f4e2ad99c34d60b9ba6283c9431a8418af8673212961f97a77b6377fcd05b62"
)

var cosmosParams = wallet.Params{Prefix: "cosmos", CoinType: wallet.DefaultCoinType}

// =============================================================================

func Test_Derivation(t *testing.T) {
	t.Log("Given the need to derive accounts from a mnemonic.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling the standard test mnemonic.", testID)
		{
			w1, err := wallet.FromMnemonic(mnemonic, cosmosParams)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to derive the wallet: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to derive the wallet.", success, testID)

			if w1.Address() != address {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, w1.Address())
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, address)
				t.Fatalf("\t%s\tTest %d:\tShould derive the known address.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould derive the known address.", success, testID)

			// Extra whitespace must not change the derived account.
			w2, err := wallet.FromMnemonic("  "+strings.ReplaceAll(mnemonic, " ", "   ")+"\n", cosmosParams)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to derive the wallet twice: %v", failed, testID, err)
			}

			if w1.Address() != w2.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould derive the same address twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould derive the same address twice.", success, testID)

			pub := w1.PubKey()
			if _, err := btcec.ParsePubKey(pub); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould expose a valid compressed public key: %v", failed, testID, err)
			}

			got := hex.EncodeToString(pub)
			if got != pubHex {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, pubHex)
				t.Fatalf("\t%s\tTest %d:\tShould derive the known public key.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould derive the known public key.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen handling a different network prefix.", testID)
		{
			w, err := wallet.FromMnemonic(mnemonic, wallet.Params{Prefix: "osmo", CoinType: wallet.DefaultCoinType})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to derive the wallet: %v", failed, testID, err)
			}

			const exp = "osmo19rl4cm2hmr8afy4kldpxz3fka4jguq0a5m7df8"
			if w.Address() != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, w.Address())
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould encode with the network prefix.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould encode with the network prefix.", success, testID)
		}
	}
}

func Test_Generate(t *testing.T) {
	w, err := wallet.Generate(12, cosmosParams)
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	if n := len(strings.Fields(w.Mnemonic())); n != 12 {
		t.Fatalf("Should generate a 12 word mnemonic, got %d.", n)
	}

	if err := wallet.ValidateAddress(w.Address(), "cosmos"); err != nil {
		t.Fatalf("Should generate a valid address: %s", err)
	}

	again, err := wallet.FromMnemonic(w.Mnemonic(), cosmosParams)
	if err != nil {
		t.Fatalf("Should be able to restore the wallet: %s", err)
	}

	if again.Address() != w.Address() {
		t.Fatalf("Should restore the same address from the mnemonic.")
	}

	if _, err := wallet.Generate(13, cosmosParams); err == nil {
		t.Fatalf("Should not support a 13 word mnemonic.")
	}
}

func Test_InvalidMnemonic(t *testing.T) {
	tt := []struct {
		name     string
		mnemonic string
		params   wallet.Params
	}{
		{name: "empty", mnemonic: "   ", params: cosmosParams},
		{name: "checksum", mnemonic: strings.Replace(mnemonic, "about", "abandon", 1), params: cosmosParams},
		{name: "prefix", mnemonic: mnemonic, params: wallet.Params{}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			if _, err := wallet.FromMnemonic(tst.mnemonic, tst.params); err == nil {
				t.Fatalf("\t%s\tShould fail to derive a wallet.", failed)
			}
			t.Logf("\t%s\tShould fail to derive a wallet.", success)
		}

		t.Run(tst.name, f)
	}
}

func Test_SignVerify(t *testing.T) {
	w, err := wallet.FromMnemonic(mnemonic, cosmosParams)
	if err != nil {
		t.Fatalf("Should be able to derive the wallet: %s", err)
	}

	data := []byte(`{"chain_id":"simapp"}`)

	sig, err := w.Sign(data)
	if err != nil {
		t.Fatalf("Should be able to sign: %s", err)
	}

	if err := signature.VerifySignature(w.PubKey(), data, sig); err != nil {
		t.Fatalf("Should be able to verify with the wallet public key: %s", err)
	}
}

func Test_ValidateAddress(t *testing.T) {
	tt := []struct {
		name    string
		address string
		prefix  string
		valid   bool
	}{
		{name: "account", address: address, prefix: "cosmos", valid: true},
		{name: "valoper", address: "cosmosvaloper19rl4cm2hmr8afy4kldpxz3fka4jguq0ae5egnx", prefix: wallet.ValoperPrefix("cosmos"), valid: true},
		{name: "wrong-prefix", address: address, prefix: "osmo", valid: false},
		{name: "valoper-as-account", address: "cosmosvaloper19rl4cm2hmr8afy4kldpxz3fka4jguq0ae5egnx", prefix: "cosmos", valid: false},
		{name: "bad-checksum", address: "cosmos19rl4cm2hmr8afy4kldpxz3fka4jguq0auqdal5", prefix: "cosmos", valid: false},
		{name: "garbage", address: "not-an-address", prefix: "cosmos", valid: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			err := wallet.ValidateAddress(tst.address, tst.prefix)
			switch {
			case tst.valid && err != nil:
				t.Fatalf("\t%s\tShould accept the address: %v", failed, err)
			case !tst.valid && err == nil:
				t.Fatalf("\t%s\tShould reject the address.", failed)
			}
			t.Logf("\t%s\tShould validate the address correctly.", success)
		}

		t.Run(tst.name, f)
	}
}

func Test_ConvertAddress(t *testing.T) {
	valoper, err := wallet.ConvertAddress(address, wallet.ValoperPrefix("cosmos"))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to convert the address: %s", failed, err)
	}

	if valoper != "cosmosvaloper19rl4cm2hmr8afy4kldpxz3fka4jguq0ae5egnx" {
		t.Fatalf("\t%s\tShould derive the operator address, got %s.", failed, valoper)
	}

	osmo, err := wallet.ConvertAddress(valoper, "osmo")
	if err != nil || osmo != "osmo19rl4cm2hmr8afy4kldpxz3fka4jguq0a5m7df8" {
		t.Fatalf("\t%s\tShould convert between prefixes, got %s: %v", failed, osmo, err)
	}
	t.Logf("\t%s\tShould convert between prefixes.", success)
}
