// Package registry reads and writes the accounts.json file that maps a
// logical account key, like wallet1, to its seed material and address.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrExists is returned when creating a registry over an existing file.
var ErrExists = errors.New("account registry already exists")

// Entry represents the persisted information for one account.
type Entry struct {
	Mnemonic string `json:"mnemonic"`
	Address  string `json:"address"`
}

// Registry maintains the set of locally generated accounts.
type Registry struct {
	path     string
	accounts map[string]Entry
}

// Load reads the registry file at the specified path.
func Load(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading account registry: %w", err)
	}

	accounts := make(map[string]Entry)
	if err := json.Unmarshal(content, &accounts); err != nil {
		return nil, fmt.Errorf("decoding account registry %s: %w", path, err)
	}

	return &Registry{path: path, accounts: accounts}, nil
}

// Create writes a new registry file with the specified accounts. The file
// is written once; an existing registry is only replaced when overwrite is set.
func Create(path string, accounts map[string]Entry, overwrite bool) (*Registry, error) {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return nil, fmt.Errorf("%s: %w", path, ErrExists)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking account registry: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating registry folder: %w", err)
		}
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding account registry: %w", err)
	}

	// The file holds seed material so only the owner can read it.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("writing account registry: %w", err)
	}

	cpy := make(map[string]Entry, len(accounts))
	for key, entry := range accounts {
		cpy[key] = entry
	}

	return &Registry{path: path, accounts: cpy}, nil
}

// Path returns the location of the registry file.
func (r *Registry) Path() string {
	return r.path
}

// Lookup returns the entry for the logical account key.
func (r *Registry) Lookup(key string) (Entry, bool) {
	entry, exists := r.accounts[key]
	return entry, exists
}

// Name returns the logical key for the specified address. If the address
// is unknown, the address itself is returned.
func (r *Registry) Name(address string) string {
	for key, entry := range r.accounts {
		if entry.Address == address {
			return key
		}
	}
	return address
}

// Keys returns the logical account keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.accounts))
	for key := range r.accounts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a copy of the map of keys and entries.
func (r *Registry) Copy() map[string]Entry {
	cpy := make(map[string]Entry, len(r.accounts))
	for key, entry := range r.accounts {
		cpy[key] = entry
	}
	return cpy
}
