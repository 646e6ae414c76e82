package keystore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/infra/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLookup(t *testing.T) {
	src := map[string]domain.Secret{"foo": domain.Secret("ABCDEFGHIJK")}
	store, err := keystore.NewMemory(src)
	require.NoError(t, err)

	src["foo"][0] = 'Z'

	secret, found, err := store.Lookup(context.Background(), "foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.Secret("ABCDEFGHIJK"), secret)

	secret[0] = 'Q'
	again, _, _ := store.Lookup(context.Background(), "foo")
	assert.Equal(t, domain.Secret("ABCDEFGHIJK"), again)

	_, found, err = store.Lookup(context.Background(), "bar")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryRejectsInvalidEntries(t *testing.T) {
	_, err := keystore.NewMemory(map[string]domain.Secret{"": domain.Secret("x")})
	assert.ErrorIs(t, err, app_errors.ErrInvalidConfig)

	_, err = keystore.NewMemory(map[string]domain.Secret{"foo": nil})
	assert.ErrorIs(t, err, app_errors.ErrEmptySecret)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	store, err := keystore.NewMemory(map[string]domain.Secret{"foo": domain.Secret("k")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, found, err := store.Lookup(ctx, "foo")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}

func TestParseKeyring(t *testing.T) {
	keys, err := keystore.ParseKeyring([]byte(`
keys:
  foo:
    secret: ABCDEFGHIJK
  bar:
    secret: 6b6579
    encoding: hex
  baz:
    secret: a2V5
    encoding: base64
    description: partner integration
`))
	require.NoError(t, err)
	assert.Equal(t, domain.Secret("ABCDEFGHIJK"), keys["foo"])
	assert.Equal(t, domain.Secret("key"), keys["bar"])
	assert.Equal(t, domain.Secret("key"), keys["baz"])
}

func TestParseKeyringErrors(t *testing.T) {
	cases := map[string]string{
		"not yaml":     "keys: [",
		"no keys":      "keys: {}\n",
		"bad hex":      "keys:\n  foo:\n    secret: zz\n    encoding: hex\n",
		"bad encoding": "keys:\n  foo:\n    secret: x\n    encoding: rot13\n",
		"empty secret": "keys:\n  foo:\n    secret: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := keystore.ParseKeyring([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keys:\n  foo:\n    secret: ABCDEFGHIJK\n"), 0o600))

	store, err := keystore.NewFile(path)
	require.NoError(t, err)

	secret, found, err := store.Lookup(context.Background(), "foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.Secret("ABCDEFGHIJK"), secret)

	_, err = keystore.NewFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
