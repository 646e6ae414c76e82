package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

const (
	// MaxPayloadSize bounds the bytes hashed for a single request.
	MaxPayloadSize = 1 << 20
	// MaxRequestSize bounds an encoded request, leaving room for base64 and envelope.
	MaxRequestSize = MaxPayloadSize*4/3 + 4096
)

var (
	lowerHexRegex = regexp.MustCompile(`^[0-9a-f]+$`)
	arnRegex      = regexp.MustCompile(`^arn:aws[a-z\-]*:[a-z0-9\-]+:[a-z0-9\-]*:[0-9]{12}:.+$`)
)

// RequestValidator checks the structure of a request before any
// authorization work is attempted.
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() (*RequestValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register custom validators: %w", err)
	}
	return &RequestValidator{validator: v}, nil
}

// RegisterCustomValidators installs the tags used by request and config structs.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("lowerhex", func(fl validator.FieldLevel) bool {
		return lowerHexRegex.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	// arn also accepts partitions such as aws-cn and aws-us-gov.
	return v.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		return arnRegex.MatchString(fl.Field().String())
	})
}

// Validate returns an error wrapping ErrMalformedRequest when req is not a
// structurally valid signed request.
func (rv *RequestValidator) Validate(req *domain.Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", app_errors.ErrMalformedRequest)
	}
	if !req.IsSigned() {
		return fmt.Errorf("%w: request is not signed", app_errors.ErrMalformedRequest)
	}
	if len(req.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: payload exceeds %d bytes", app_errors.ErrMalformedRequest, MaxPayloadSize)
	}

	if err := rv.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", app_errors.ErrMalformedRequest, describe(verrs))
		}
		return fmt.Errorf("%w: %v", app_errors.ErrMalformedRequest, err)
	}
	return nil
}

// DecodeRequest reads a single JSON-encoded request. Decoding failures,
// including a non-numeric timestamp or data after the request object, wrap
// ErrMalformedRequest.
func DecodeRequest(r io.Reader) (*domain.Request, error) {
	dec := json.NewDecoder(io.LimitReader(r, MaxRequestSize))
	dec.DisallowUnknownFields()

	var req domain.Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrMalformedRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after request", app_errors.ErrMalformedRequest)
	}
	return &req, nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Request.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
