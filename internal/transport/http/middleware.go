package http

import (
	"context"
	"net/http"
	"strings"

	"opennotes-gateway/internal/domain"
)

// Header carrying the desktop client's pre-shared secret on code exchange.
const desktopSecretHeader = "X-Desktop-Secret"

// Dedicated caller-credential header; a "Bearer " Authorization header works too.
const appTokenHeader = "X-App-Token"

type contextKey string

const principalKey contextKey = "principal"

// extractToken pulls the caller credential from the dedicated header or a
// Bearer Authorization header. No other forms are accepted.
func extractToken(r *http.Request) string {
	if token := r.Header.Get(appTokenHeader); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// securityHeaders applies the fixed hardening set to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requireCaller guards the proxy path: a registered caller credential, or
// the first-party frontend identified by Origin/Referer, then the rate
// limiter. The resolved caller id lands in the request context.
func (h *Handler) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID, limit, ok := h.resolveCaller(r)
		if !ok {
			respondError(w, domain.ErrInvalidToken)
			return
		}

		decision, err := h.limiter.Check(r.Context(), callerID, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		if !decision.Allowed {
			respondRateLimited(w, decision.RetryAfter)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveCaller identifies who is calling the proxy. A valid registered
// credential wins; absent that, a first-party Origin/Referer resolves to
// the implicit frontend caller with its own generous quota.
func (h *Handler) resolveCaller(r *http.Request) (string, int, bool) {
	if caller, ok := h.callers.Validate(extractToken(r)); ok {
		return caller.ID, caller.RateLimit, true
	}
	if h.frontendOrigins.Allows(r.Header.Get("Origin"), r.Header.Get("Referer")) {
		return "frontend", h.frontendLimit, true
	}
	return "", 0, false
}
