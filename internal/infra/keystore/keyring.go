package keystore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"gopkg.in/yaml.v3"
)

// Secret encodings accepted in keyring documents and configuration.
const (
	EncodingRaw    = "raw"
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// keyringDocument is the YAML layout of a keyring:
//
//	keys:
//	  foo:
//	    secret: ABCDEFGHIJK
//	  bar:
//	    secret: 6b6579
//	    encoding: hex
type keyringDocument struct {
	Keys map[string]keyringEntry `yaml:"keys"`
}

type keyringEntry struct {
	Secret      string `yaml:"secret"`
	Encoding    string `yaml:"encoding,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ParseKeyring decodes a YAML keyring document.
func ParseKeyring(data []byte) (map[string]domain.Secret, error) {
	var doc keyringDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyring: %w", err)
	}
	if len(doc.Keys) == 0 {
		return nil, fmt.Errorf("%w: no keys defined", app_errors.ErrInvalidConfig)
	}

	keys := make(map[string]domain.Secret, len(doc.Keys))
	for id, entry := range doc.Keys {
		secret, err := DecodeSecret(entry.Secret, entry.Encoding)
		if err != nil {
			return nil, fmt.Errorf("invalid key %s: %w", id, err)
		}
		keys[id] = secret
	}
	return keys, nil
}

// DecodeSecret turns a configured secret into bytes. An empty encoding means raw.
func DecodeSecret(value, encoding string) (domain.Secret, error) {
	var (
		secret []byte
		err    error
	)
	switch encoding {
	case "", EncodingRaw:
		secret = []byte(value)
	case EncodingHex:
		secret, err = hex.DecodeString(value)
	case EncodingBase64:
		secret, err = base64.StdEncoding.DecodeString(value)
	default:
		return nil, fmt.Errorf("%w: unknown secret encoding %q", app_errors.ErrInvalidConfig, encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid %s: %v", app_errors.ErrInvalidConfig, encoding, err)
	}
	if len(secret) == 0 {
		return nil, app_errors.ErrEmptySecret
	}
	return secret, nil
}
