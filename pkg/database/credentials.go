package database

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the system keyring service under which store passwords
// are kept. The keyring user is the store name (postgres, mongodb, ...).
const KeyringService = "tpo-pokerstars"

// ResolvePassword returns configured when it is non-empty. Otherwise, if
// useKeyring is set, the password stored for store in the system keyring is
// returned. A missing keyring entry resolves to an empty password.
func ResolvePassword(store, configured string, useKeyring bool) (string, error) {
	if configured != "" || !useKeyring {
		return configured, nil
	}

	password, err := keyring.Get(KeyringService, store)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to retrieve %s password from keyring: %w", store, err)
	}
	return password, nil
}

// StorePassword saves a store password in the system keyring
func StorePassword(store, password string) error {
	if err := keyring.Set(KeyringService, store, password); err != nil {
		return fmt.Errorf("failed to store %s password in keyring: %w", store, err)
	}
	return nil
}
