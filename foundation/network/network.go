// Package network maintains the named network profiles a client can connect
// to. Each profile fully specifies the endpoints and chain parameters.
package network

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ardanlabs/staking/foundation/validate"
	"github.com/ardanlabs/staking/foundation/wallet"
	"gopkg.in/yaml.v3"
)

// Set of built in profile names.
const (
	Mainnet = "mainnet"
	Testnet = "testnet"
	Local   = "local"
)

// ErrUnknownProfile is returned when a profile name can't be resolved.
var ErrUnknownProfile = errors.New("unknown network profile")

// Profile represents the connection and chain parameters for a network.
type Profile struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	RPCEndpoint   string `yaml:"rpcEndpoint" json:"rpcEndpoint" validate:"required,url"`
	RESTEndpoint  string `yaml:"restEndpoint" json:"restEndpoint" validate:"required,url"`
	ChainID       string `yaml:"chainId" json:"chainId" validate:"required"`
	AddressPrefix string `yaml:"addressPrefix" json:"addressPrefix" validate:"required,lowercase,alphanum"`
	CoinType      uint32 `yaml:"coinType" json:"coinType"`
	Denom         string `yaml:"denom" json:"denom" validate:"required"`
	GasPrice      string `yaml:"gasPrice" json:"gasPrice" validate:"required,numeric"`
	ExplorerURL   string `yaml:"explorerUrl" json:"explorerUrl" validate:"omitempty,url"`
}

var builtin = map[string]Profile{
	Mainnet: {
		Name:          Mainnet,
		RPCEndpoint:   "https://rpc.cosmos.network:443",
		RESTEndpoint:  "https://api.cosmos.network",
		ChainID:       "cosmoshub-4",
		AddressPrefix: "cosmos",
		CoinType:      wallet.DefaultCoinType,
		Denom:         "uatom",
		GasPrice:      "0.025",
		ExplorerURL:   "https://www.mintscan.io/cosmos",
	},
	Testnet: {
		Name:          Testnet,
		RPCEndpoint:   "https://rpc.sentry-01.theta-testnet.polypore.xyz:443",
		RESTEndpoint:  "https://rest.sentry-01.theta-testnet.polypore.xyz",
		ChainID:       "theta-testnet-001",
		AddressPrefix: "cosmos",
		CoinType:      wallet.DefaultCoinType,
		Denom:         "uatom",
		GasPrice:      "0.025",
		ExplorerURL:   "https://explorer.theta-testnet.polypore.xyz",
	},
	Local: {
		Name:          Local,
		RPCEndpoint:   "http://localhost:26657",
		RESTEndpoint:  "http://localhost:1317",
		ChainID:       "simapp",
		AddressPrefix: "cosmos",
		CoinType:      wallet.DefaultCoinType,
		Denom:         "stake",
		GasPrice:      "0.025",
	},
}

// Names returns the sorted names of the built in profiles.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the validated built in profile for the name.
func Lookup(name string) (Profile, error) {
	return Load(name, "")
}

// Load resolves the named profile. When overridesFile is provided, it's a YAML
// document keyed by profile name. Fields present in the document replace the
// built in values, and names that are not built in define new profiles.
func Load(name string, overridesFile string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	profile, exists := builtin[name]

	if overridesFile != "" {
		data, err := os.ReadFile(overridesFile)
		if err != nil {
			return Profile{}, fmt.Errorf("reading profiles: %w", err)
		}

		var doc map[string]yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Profile{}, fmt.Errorf("decoding profiles %s: %w", overridesFile, err)
		}

		if node, found := doc[name]; found {
			if err := node.Decode(&profile); err != nil {
				return Profile{}, fmt.Errorf("decoding profile %q: %w", name, err)
			}
			exists = true
		}
	}

	if !exists {
		return Profile{}, fmt.Errorf("%q: %w", name, ErrUnknownProfile)
	}

	if profile.Name == "" {
		profile.Name = name
	}

	if err := validate.Check(profile); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}

	return profile, nil
}

// WalletParams returns the parameters needed to derive addresses.
func (p Profile) WalletParams() wallet.Params {
	return wallet.Params{
		Prefix:   p.AddressPrefix,
		CoinType: p.CoinType,
	}
}

// ValoperPrefix returns the bech32 prefix of validator operator addresses.
func (p Profile) ValoperPrefix() string {
	return wallet.ValoperPrefix(p.AddressPrefix)
}

// TxURL returns the explorer link for a transaction hash, or an empty
// string when the profile has no explorer.
func (p Profile) TxURL(hash string) string {
	if p.ExplorerURL == "" {
		return ""
	}
	return strings.TrimSuffix(p.ExplorerURL, "/") + "/transactions/" + hash
}
