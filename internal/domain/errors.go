package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken is returned when no registered caller matches a credential.
	ErrInvalidToken = errors.New("invalid or missing credential")
	// ErrForbidden is returned when a valid caller lacks the required rights.
	ErrForbidden = errors.New("insufficient rights")
	// ErrOriginNotAllowed is returned when a request's origin fails an allow-list check.
	ErrOriginNotAllowed = errors.New("origin not allowed")
	// ErrRateLimited signals the caller exceeded its request quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrQuizNotFound indicates the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCodeNotFound covers unknown and expired auth codes alike, so a guess
	// cannot distinguish "never existed" from "expired".
	ErrCodeNotFound = errors.New("code not found or expired")
	// ErrCodeRedeemed is returned when a code existed but was already consumed.
	ErrCodeRedeemed = errors.New("code already redeemed")
	// ErrUpstream indicates the notes API could not be reached or errored.
	ErrUpstream = errors.New("upstream request failed")
)

// ValidationError carries every violation found in a submitted document so
// the client can fix them all in one round trip.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Issues, "; "))
}

// MissingQuizzesError reports every unresolvable id of a combine request.
type MissingQuizzesError struct {
	IDs []string
}

func (e *MissingQuizzesError) Error() string {
	return fmt.Sprintf("quizzes not found: %s", strings.Join(e.IDs, ", "))
}
