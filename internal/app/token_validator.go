package app

import (
	"crypto/subtle"

	"opennotes-gateway/internal/domain"
)

// TokenValidator resolves opaque caller credentials against the registry of
// registered integrations.
type TokenValidator struct {
	callers []domain.Caller
}

func NewTokenValidator(callers []domain.Caller) *TokenValidator {
	return &TokenValidator{callers: callers}
}

// Validate matches a token against every registered caller's secret.
// Comparison is constant-time per candidate; inactive callers never match.
// An empty token never matches anything.
func (v *TokenValidator) Validate(token string) (domain.Caller, bool) {
	if token == "" {
		return domain.Caller{}, false
	}
	for _, caller := range v.callers {
		if !caller.Active {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(caller.Secret)) == 1 {
			return caller, true
		}
	}
	return domain.Caller{}, false
}
