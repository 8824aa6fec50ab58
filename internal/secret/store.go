package secret

import (
	"os"
	"runtime"
	"strings"
)

// Store provides a pluggable interface for storing sensitive data
// such as database passwords.
type Store interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// EnvStore reads secrets from environment variables. The key "db:local"
// with prefix "FIELDLOOKUP" maps to FIELDLOOKUP_DB_LOCAL.
type EnvStore struct {
	Prefix string
}

// NewEnvStore creates an EnvStore with the given variable prefix.
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{Prefix: prefix}
}

// VarName returns the environment variable consulted for key.
func (e *EnvStore) VarName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	if e.Prefix == "" {
		return name
	}
	return e.Prefix + "_" + name
}

func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(e.VarName(key), string(value))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.VarName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.VarName(key))
}

// Chain consults each store in order and returns the first non-empty value.
// Set and Delete go to the first store.
type Chain []Store

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Set(key, value)
}

func (c Chain) Delete(key string) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Delete(key)
}

// Default returns the environment store, followed by the macOS Keychain on
// darwin.
func Default() Store {
	stores := Chain{NewEnvStore("FIELDLOOKUP")}
	if runtime.GOOS == "darwin" {
		stores = append(stores, NewKeychainStore())
	}
	return stores
}
