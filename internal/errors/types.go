package errors

import "errors"

var (
	ErrMalformedRequest     = errors.New("malformed request")
	ErrKeyNotFound          = errors.New("key not found")
	ErrSignatureMismatch    = errors.New("signature mismatch")
	ErrTimestampOutOfWindow = errors.New("timestamp outside replay window")
	ErrKeyStoreUnavailable  = errors.New("key store unavailable")
	ErrEmptySecret          = errors.New("secret cannot be empty")
	ErrInvalidConfig        = errors.New("invalid configuration")

	// ErrUnauthorized is the only authorization failure callers ever see.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)
