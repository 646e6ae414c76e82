package signer

import (
	"fmt"

	"github.com/spounge-ai/reqauth/internal/clock"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// RequestSigner produces signed requests on behalf of a single API key,
// stamping each one with the time read from its clock.
type RequestSigner struct {
	clock  clock.Clock
	keyID  string
	secret domain.Secret
}

// NewRequestSigner binds a key and its secret to a clock.
func NewRequestSigner(clk clock.Clock, keyID string, secret domain.Secret) (*RequestSigner, error) {
	if clk == nil {
		return nil, fmt.Errorf("%w: clock is required", app_errors.ErrInvalidConfig)
	}
	if keyID == "" {
		return nil, fmt.Errorf("%w: key id is required", app_errors.ErrInvalidConfig)
	}
	if len(secret) == 0 {
		return nil, app_errors.ErrEmptySecret
	}
	return &RequestSigner{clock: clk, keyID: keyID, secret: secret.Clone()}, nil
}

// Sign returns a request for payload signed at the current clock reading.
func (s *RequestSigner) Sign(payload []byte) (*domain.Request, error) {
	return s.SignAt(s.clock.NowMillis(), payload)
}

// SignAt returns a request for payload signed with an explicit timestamp.
func (s *RequestSigner) SignAt(timestamp int64, payload []byte) (*domain.Request, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload cannot be empty", app_errors.ErrMalformedRequest)
	}
	sig, err := SignRequest(s.secret, timestamp, payload)
	if err != nil {
		return nil, err
	}
	return &domain.Request{
		Timestamp: timestamp,
		Payload:   append([]byte(nil), payload...),
		Authorization: domain.Authorization{
			KeyID:     s.keyID,
			Signature: sig,
		},
	}, nil
}
