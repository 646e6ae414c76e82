package keystore

import (
	"fmt"
	"os"
)

// NewFile loads a YAML keyring from disk into an in-memory store.
func NewFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring file %s: %w", path, err)
	}

	keys, err := ParseKeyring(data)
	if err != nil {
		return nil, fmt.Errorf("keyring file %s: %w", path, err)
	}
	return NewMemory(keys)
}
