// Package keys provides the account source backed by locally held mnemonics.
package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/foundation/registry"
	"github.com/ardanlabs/staking/foundation/wallet"
)

// Source signs for a single account derived from a mnemonic.
type Source struct {
	key     string
	wallet  *wallet.Wallet
	handler chain.SignModeHandler
}

// FromMnemonic constructs the source for the logical account key using the
// provided mnemonic. The handler supplies the sign doc for every request.
func FromMnemonic(key string, mnemonic string, params wallet.Params, handler chain.SignModeHandler) (*Source, error) {
	if handler == nil {
		return nil, chain.NewConfigurationError("signMode", "no sign mode handler provided")
	}

	if mnemonic == "" {
		return nil, &chain.KeyUnavailableError{Key: key, Err: errors.New("no mnemonic configured")}
	}

	w, err := wallet.FromMnemonic(mnemonic, params)
	if err != nil {
		return nil, &chain.KeyUnavailableError{Key: key, Err: err}
	}

	return &Source{key: key, wallet: w, handler: handler}, nil
}

// FromRegistry constructs the source for the logical account key stored in
// the registry. The derived address must match the recorded one.
func FromRegistry(reg *registry.Registry, key string, params wallet.Params, handler chain.SignModeHandler) (*Source, error) {
	entry, exists := reg.Lookup(key)
	if !exists {
		return nil, &chain.KeyUnavailableError{Key: key, Err: fmt.Errorf("not found in %s", reg.Path())}
	}

	src, err := FromMnemonic(key, entry.Mnemonic, params, handler)
	if err != nil {
		return nil, err
	}

	if entry.Address != "" && entry.Address != src.wallet.Address() {
		return nil, &chain.KeyUnavailableError{
			Key: key,
			Err: fmt.Errorf("derived address %s does not match recorded address %s", src.wallet.Address(), entry.Address),
		}
	}

	return src, nil
}

// Key returns the logical account key.
func (s *Source) Key() string {
	return s.key
}

// Address returns the account address.
func (s *Source) Address() string {
	return s.wallet.Address()
}

// Account implements the chain.AccountSource interface.
func (s *Source) Account(ctx context.Context) (chain.Account, error) {
	acc := chain.Account{
		Address: s.wallet.Address(),
		PubKey:  s.wallet.PubKey(),
	}

	return acc, nil
}

// Sign implements the chain.AccountSource interface.
func (s *Source) Sign(req chain.TxRequest) (chain.SignedTx, error) {
	if req.Sender.Address != s.wallet.Address() {
		return chain.SignedTx{}, fmt.Errorf("request sender %s is not account %s", req.Sender.Address, s.wallet.Address())
	}

	signBytes, err := s.handler.SignBytes(req)
	if err != nil {
		return chain.SignedTx{}, fmt.Errorf("building sign bytes: %w", err)
	}

	sig, err := s.wallet.Sign(signBytes)
	if err != nil {
		return chain.SignedTx{}, fmt.Errorf("signing: %w", err)
	}

	return chain.NewSignedTx(req, s.wallet.PubKey(), sig), nil
}
