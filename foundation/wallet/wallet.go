// Package wallet derives Cosmos SDK accounts from BIP39 mnemonics. Keys are
// derived on the BIP44 path m/44'/coin'/0'/0/0 and addresses are the bech32
// encoding of the RIPEMD160(SHA256) hash of the compressed public key.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/staking/foundation/signature"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/go-bip39"
)

// DefaultCoinType is the SLIP-44 coin type registered for the Cosmos Hub.
const DefaultCoinType = 118

// Params describes how addresses are derived and encoded for a network.
type Params struct {
	Prefix   string
	CoinType uint32
}

// Wallet holds the key material for a single derived account.
type Wallet struct {
	mnemonic   string
	privateKey *ecdsa.PrivateKey
	pubKey     []byte
	address    string
}

// Generate creates a new wallet from a freshly generated mnemonic with the
// specified number of words. Only 12 and 24 word mnemonics are supported.
func Generate(words int, params Params) (*Wallet, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return nil, fmt.Errorf("unsupported mnemonic length %d", words)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return nil, fmt.Errorf("generating entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("generating mnemonic: %w", err)
	}

	return FromMnemonic(mnemonic, params)
}

// FromMnemonic derives the wallet for the mnemonic. The same mnemonic and
// params always produce the same address.
func FromMnemonic(mnemonic string, params Params) (*Wallet, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return nil, errors.New("mnemonic is empty")
	}

	if params.Prefix == "" {
		return nil, errors.New("address prefix is empty")
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	privateKey, err := deriveKey(seed, params.CoinType)
	if err != nil {
		return nil, err
	}

	pubKey := signature.CompressedPublicKey(privateKey)

	address, err := AddressFromPubKey(params.Prefix, pubKey)
	if err != nil {
		return nil, err
	}

	w := Wallet{
		mnemonic:   mnemonic,
		privateKey: privateKey,
		pubKey:     pubKey,
		address:    address,
	}

	return &w, nil
}

// Address returns the bech32 account address.
func (w *Wallet) Address() string {
	return w.address
}

// Mnemonic returns the mnemonic the wallet was derived from.
func (w *Wallet) Mnemonic() string {
	return w.mnemonic
}

// PubKey returns a copy of the compressed secp256k1 public key.
func (w *Wallet) PubKey() []byte {
	pub := make([]byte, len(w.pubKey))
	copy(pub, w.pubKey)
	return pub
}

// Sign produces the [R|S] signature for the sign bytes.
func (w *Wallet) Sign(signBytes []byte) ([]byte, error) {
	return signature.SignBytes(signBytes, w.privateKey)
}

// =============================================================================

// AddressFromPubKey encodes the address for a compressed public key.
func AddressFromPubKey(prefix string, pubKey []byte) (string, error) {
	if len(pubKey) != 33 {
		return "", fmt.Errorf("public key must be 33 bytes, got %d", len(pubKey))
	}

	return bech32.EncodeFromBase256(prefix, btcutil.Hash160(pubKey))
}

// ValidateAddress verifies the address is valid bech32 with the expected
// human readable prefix. Operator addresses use the prefix + "valoper".
func ValidateAddress(address string, prefix string) error {
	hrp, data, err := bech32.DecodeToBase256(address)
	if err != nil {
		return fmt.Errorf("decoding %q: %w", address, err)
	}

	if hrp != prefix {
		return fmt.Errorf("address %q has prefix %q, expected %q", address, hrp, prefix)
	}

	// Accounts are 20 bytes, module and contract accounts are 32.
	if len(data) != 20 && len(data) != 32 {
		return fmt.Errorf("address %q has invalid length %d", address, len(data))
	}

	return nil
}

// ConvertAddress re-encodes the address with another bech32 prefix, such
// as an account address into its validator operator address.
func ConvertAddress(address string, prefix string) (string, error) {
	_, data, err := bech32.DecodeToBase256(address)
	if err != nil {
		return "", fmt.Errorf("decoding %q: %w", address, err)
	}

	return bech32.EncodeFromBase256(prefix, data)
}

// ValoperPrefix returns the bech32 prefix used for validator operators.
func ValoperPrefix(prefix string) string {
	return prefix + "valoper"
}

// =============================================================================

// deriveKey walks the BIP44 path m/44'/coinType'/0'/0/0.
func deriveKey(seed []byte, coinType uint32) (*ecdsa.PrivateKey, error) {
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}

	key := masterKey
	for _, idx := range path {
		if key, err = key.Derive(idx); err != nil {
			return nil, fmt.Errorf("deriving index %d: %w", idx, err)
		}
	}

	ecPrivKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}

	return ecPrivKey.ToECDSA(), nil
}
