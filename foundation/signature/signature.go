// Package signature provides helper functions for handling the secp256k1
// signature needs of Cosmos SDK based chains.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of a Cosmos secp256k1 signature in the
// [R|S] format. The recovery id is not part of the signature on chain.
const SignatureLength = 64

// =============================================================================

// TxHash returns the hash the chain uses to identify the encoded transaction.
func TxHash(txBytes []byte) string {
	hash := sha256.Sum256(txBytes)
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

// SignBytes uses the specified private key to sign the sign doc bytes of a
// transaction.
func SignBytes(signBytes []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	data := stamp(signBytes)

	// Sign the hash with the private key to produce a signature. The nonce
	// is derived with RFC6979 so the same input always signs the same.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.CompressPubkey(publicKey), data, rs) {
		return nil, errors.New("invalid signature")
	}

	return rs, nil
}

// VerifySignature verifies the signature was produced over the sign bytes
// by the key behind the compressed public key.
func VerifySignature(pubKey []byte, signBytes []byte, sig []byte) error {
	if len(sig) != SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sig))
	}

	if !crypto.VerifySignature(pubKey, stamp(signBytes), sig) {
		return errors.New("signature does not match public key")
	}

	return nil
}

// CompressedPublicKey returns the 33 byte compressed form of the public key
// which is what Cosmos chains use to derive addresses.
func CompressedPublicKey(privateKey *ecdsa.PrivateKey) []byte {
	return crypto.CompressPubkey(&privateKey.PublicKey)
}

// =============================================================================

// stamp returns the 32 byte sha256 digest secp256k1 signs on Cosmos chains.
func stamp(signBytes []byte) []byte {
	hash := sha256.Sum256(signBytes)
	return hash[:]
}
