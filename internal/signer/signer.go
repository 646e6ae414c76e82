// Package signer computes and compares request signatures.
//
// A signature is HMAC-SHA256 over the canonical message, which is the decimal
// form of the timestamp immediately followed by the raw payload bytes, with no
// separator and no length prefix. The result is rendered as 64 lowercase hex
// characters.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// SignatureLength is the length of a hex-encoded signature.
const SignatureLength = sha256.Size * 2

// Canonicalize returns the exact bytes that are signed for a request.
func Canonicalize(timestamp int64, payload []byte) []byte {
	msg := make([]byte, 0, 20+len(payload))
	msg = strconv.AppendInt(msg, timestamp, 10)
	return append(msg, payload...)
}

// Sign returns the hex HMAC-SHA256 of message under secret.
func Sign(secret domain.Secret, message []byte) (string, error) {
	if len(secret) == 0 {
		return "", app_errors.ErrEmptySecret
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// SignRequest signs the canonical form of (timestamp, payload).
func SignRequest(secret domain.Secret, timestamp int64, payload []byte) (string, error) {
	return Sign(secret, Canonicalize(timestamp, payload))
}

// Equal compares two signatures in time independent of where they differ.
func Equal(expected, supplied string) bool {
	return hmac.Equal([]byte(expected), []byte(supplied))
}
