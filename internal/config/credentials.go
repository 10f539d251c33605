package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialReader is the narrow surface Resolve needs from a stored
// credential file (spec §6.3 step 3: "opaque to the core; reads an
// active-provider selector and then the matching key").
type CredentialReader interface {
	ActiveProvider() Provider
	Get(p Provider) (string, bool)
}

// CredentialStore is a JSON-backed CredentialReader, grounded on
// original_source/crates/krusty-core/src/storage/credentials.rs's
// CredentialStore (a flat provider->key map persisted under
// ~/.krusty/tokens/credentials.json) and its companion
// ActiveProviderStore selector, combined into one file here since the
// core treats the whole thing as opaque storage rather than a format it
// must match byte-for-byte.
type CredentialStore struct {
	Active Provider            `json:"active_provider,omitempty"`
	Keys   map[Provider]string `json:"keys"`
}

// DefaultCredentialPath returns ~/.krustycore/credentials.json, this
// core's analog of the original's ~/.krusty/tokens/credentials.json.
func DefaultCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".krustycore", "credentials.json"), nil
}

// LoadCredentialStore reads the credential file at path. A missing file
// is not an error: it returns an empty store, mirroring
// CredentialStore::load_from_path's "if !path.exists() return default".
func LoadCredentialStore(path string) (*CredentialStore, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &CredentialStore{Keys: map[Provider]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read credential store: %w", err)
	}
	var store CredentialStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("config: parse credential store: %w", err)
	}
	if store.Keys == nil {
		store.Keys = map[Provider]string{}
	}
	return &store, nil
}

// Save writes the store to path, creating parent directories and
// restricting permissions to the owner (spec §6.3's credential file is
// sensitive; grounded on CredentialStore::save_to_path's 0600 policy).
func (s *CredentialStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create credential directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal credential store: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("config: write credential store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: finalize credential store: %w", err)
	}
	return nil
}

// ActiveProvider returns the stored active-provider selector.
func (s *CredentialStore) ActiveProvider() Provider { return s.Active }

// Get returns the stored API key for p, if any.
func (s *CredentialStore) Get(p Provider) (string, bool) {
	key, ok := s.Keys[p]
	return key, ok && key != ""
}

// Set stores p's API key, for callers that manage credentials
// programmatically rather than editing the file by hand.
func (s *CredentialStore) Set(p Provider, apiKey string) {
	if s.Keys == nil {
		s.Keys = map[Provider]string{}
	}
	s.Keys[p] = apiKey
}
