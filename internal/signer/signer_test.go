package signer_test

import (
	"strings"
	"testing"

	"github.com/spounge-ai/reqauth/internal/clock"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name      string
		timestamp int64
		payload   string
		want      string
	}{
		{"zero", 0, "start-engine", "0start-engine"},
		{"millis", 1700000000000, `{"cmd":"stop"}`, `1700000000000{"cmd":"stop"}`},
		{"negative", -15, "x", "-15x"},
		{"digit payload", 12, "34", "1234"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(signer.Canonicalize(tc.timestamp, []byte(tc.payload))))
		})
	}
}

func TestSignKnownVectors(t *testing.T) {
	sig, err := signer.SignRequest(domain.Secret("ABCDEFGHIJK"), 0, []byte("start-engine"))
	require.NoError(t, err)
	assert.Equal(t, "bf03f727fa85ae7057b890ddb73dfacb87d3c2e5f4823fa01dd222aa31fcb0ce", sig)

	sig, err = signer.SignRequest(domain.Secret("topsecret"), 1700000000000, []byte(`{"cmd":"stop"}`))
	require.NoError(t, err)
	assert.Equal(t, "04b4803c8086abe93c007e25a5766839e8b452d387b4b7dcf729afe54c06d917", sig)
}

func TestSignOutputShape(t *testing.T) {
	sig, err := signer.Sign(domain.Secret("k"), []byte("m"))
	require.NoError(t, err)
	assert.Len(t, sig, signer.SignatureLength)
	assert.Equal(t, strings.ToLower(sig), sig)
}

func TestSignRejectsEmptySecret(t *testing.T) {
	_, err := signer.Sign(nil, []byte("m"))
	require.ErrorIs(t, err, app_errors.ErrEmptySecret)
}

func TestEqual(t *testing.T) {
	a := "bf03f727fa85ae7057b890ddb73dfacb87d3c2e5f4823fa01dd222aa31fcb0ce"
	assert.True(t, signer.Equal(a, a))
	assert.False(t, signer.Equal(a, strings.ToUpper(a)))
	assert.False(t, signer.Equal(a, a[:63]))
	assert.False(t, signer.Equal(a, ""))
}

func TestRequestSigner(t *testing.T) {
	ref := clock.NewReference(1234)
	rs, err := signer.NewRequestSigner(ref, "foo", domain.Secret("ABCDEFGHIJK"))
	require.NoError(t, err)

	req, err := rs.Sign([]byte("start-engine"))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), req.Timestamp)
	assert.Equal(t, "foo", req.Authorization.KeyID)
	assert.True(t, req.IsSigned())

	want, err := signer.SignRequest(domain.Secret("ABCDEFGHIJK"), 1234, []byte("start-engine"))
	require.NoError(t, err)
	assert.Equal(t, want, req.Authorization.Signature)

	req, err = rs.SignAt(0, []byte("start-engine"))
	require.NoError(t, err)
	assert.Equal(t, "bf03f727fa85ae7057b890ddb73dfacb87d3c2e5f4823fa01dd222aa31fcb0ce", req.Authorization.Signature)
}

func TestRequestSignerValidation(t *testing.T) {
	_, err := signer.NewRequestSigner(nil, "foo", domain.Secret("s"))
	require.ErrorIs(t, err, app_errors.ErrInvalidConfig)

	_, err = signer.NewRequestSigner(clock.Wall{}, "", domain.Secret("s"))
	require.ErrorIs(t, err, app_errors.ErrInvalidConfig)

	_, err = signer.NewRequestSigner(clock.Wall{}, "foo", nil)
	require.ErrorIs(t, err, app_errors.ErrEmptySecret)

	rs, err := signer.NewRequestSigner(clock.Wall{}, "foo", domain.Secret("s"))
	require.NoError(t, err)
	_, err = rs.Sign(nil)
	require.ErrorIs(t, err, app_errors.ErrMalformedRequest)
}

func TestRequestSignerDoesNotAliasSecret(t *testing.T) {
	secret := domain.Secret("mutable")
	rs, err := signer.NewRequestSigner(clock.NewReference(0), "foo", secret)
	require.NoError(t, err)

	before, err := rs.Sign([]byte("p"))
	require.NoError(t, err)

	secret[0] = 'X'
	after, err := rs.Sign([]byte("p"))
	require.NoError(t, err)

	assert.Equal(t, before.Authorization.Signature, after.Authorization.Signature)
}
