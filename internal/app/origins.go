package app

import "strings"

// OriginPolicy answers whether a request's Origin or Referer belongs to an
// allow-listed site. Referers carry a path, so they are matched by prefix
// against each allowed origin.
type OriginPolicy struct {
	allowed []string
}

func NewOriginPolicy(allowed []string) *OriginPolicy {
	return &OriginPolicy{allowed: allowed}
}

// Allows reports whether either header identifies an allow-listed origin.
func (p *OriginPolicy) Allows(origin, referer string) bool {
	for _, candidate := range p.allowed {
		if candidate == "" {
			continue
		}
		if origin != "" && origin == candidate {
			return true
		}
		if referer != "" && strings.HasPrefix(referer, candidate) {
			return true
		}
	}
	return false
}
