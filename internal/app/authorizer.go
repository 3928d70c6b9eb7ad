package app

import (
	"crypto/subtle"

	"opennotes-gateway/internal/domain"
)

// authzRule is one predicate in the priority-ordered authorization chain.
type authzRule struct {
	name  string
	check func(token string) (domain.Principal, bool)
}

// Authorizer resolves a credential to a principal through an ordered rule
// chain: admin token, then user session token, then registered app caller.
// The first matching rule wins; later components rely on that ordering.
type Authorizer struct {
	rules []authzRule
}

func NewAuthorizer(adminToken, sessionToken string, callers *TokenValidator) *Authorizer {
	a := &Authorizer{}
	if adminToken != "" {
		a.rules = append(a.rules, authzRule{
			name: "admin",
			check: func(token string) (domain.Principal, bool) {
				if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) == 1 {
					return domain.Principal{Role: domain.RoleAdmin, CallerID: "admin"}, true
				}
				return domain.Principal{}, false
			},
		})
	}
	if sessionToken != "" {
		a.rules = append(a.rules, authzRule{
			name: "user-session",
			check: func(token string) (domain.Principal, bool) {
				if subtle.ConstantTimeCompare([]byte(token), []byte(sessionToken)) == 1 {
					return domain.Principal{Role: domain.RoleUser, CallerID: "user-session"}, true
				}
				return domain.Principal{}, false
			},
		})
	}
	a.rules = append(a.rules, authzRule{
		name: "app-caller",
		check: func(token string) (domain.Principal, bool) {
			caller, ok := callers.Validate(token)
			if !ok {
				return domain.Principal{}, false
			}
			return domain.Principal{Role: domain.RoleApp, CallerID: caller.ID}, true
		},
	})
	return a
}

// Identify walks the chain and returns the first matching principal.
func (a *Authorizer) Identify(token string) (domain.Principal, bool) {
	if token == "" {
		return domain.Principal{}, false
	}
	for _, rule := range a.rules {
		if principal, ok := rule.check(token); ok {
			return principal, true
		}
	}
	return domain.Principal{}, false
}
