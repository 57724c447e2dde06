package identity

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore is the reference SecretStore backed by the OS credential
// store (Keychain, libsecret, Windows Credential Manager).
type KeyringStore struct {
	// Service namespaces keys in the OS credential store so multiple
	// lanpair instances (or test runs) do not collide.
	Service string
}

// NewKeyringStore returns a KeyringStore namespaced under service.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{Service: service}
}

// Get reads key's value, base64-decoding it back to raw bytes. A
// missing key reports ok=false with no error.
func (s *KeyringStore) Get(key string) ([]byte, bool, error) {
	encoded, err := keyring.Get(s.Service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("identity: keyring get %q: %w", key, err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("identity: keyring decode %q: %w", key, err)
	}
	return raw, true, nil
}

// Set stores value under key, base64-encoded since the OS keyring
// backends are string-oriented.
func (s *KeyringStore) Set(key string, value []byte) error {
	if err := keyring.Set(s.Service, key, base64.StdEncoding.EncodeToString(value)); err != nil {
		return fmt.Errorf("identity: keyring set %q: %w", key, err)
	}
	return nil
}
