package validation

import (
	"fmt"
	"strings"
)

const (
	MaxQueryLimit     = 1000
	DefaultQueryLimit = 100
)

type QueryValidator struct{}

func NewQueryValidator() *QueryValidator {
	return &QueryValidator{}
}

// ValidateAuditHistoryQuery checks an audit history lookup and returns the
// effective limit.
func (qv *QueryValidator) ValidateAuditHistoryQuery(keyID string, limit int) (int, error) {
	if strings.TrimSpace(keyID) == "" {
		return 0, fmt.Errorf("key_id is required")
	}
	if strings.ContainsAny(keyID, ";'\"") {
		return 0, fmt.Errorf("invalid characters in key_id")
	}

	switch {
	case limit < 0:
		return 0, fmt.Errorf("limit cannot be negative")
	case limit == 0:
		return DefaultQueryLimit, nil
	case limit > MaxQueryLimit:
		return 0, fmt.Errorf("limit %d exceeds maximum of %d", limit, MaxQueryLimit)
	}
	return limit, nil
}
