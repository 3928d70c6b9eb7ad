package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"opennotes-gateway/internal/domain"
)

// CodeStore holds live auth-code records. The broker is the only component
// allowed to touch it.
type CodeStore interface {
	Put(ctx context.Context, code domain.AuthCode) error
	Get(ctx context.Context, code string) (domain.AuthCode, bool, error)
	Delete(ctx context.Context, code string) error
	// PurgeExpired drops records past their expiry. Stores with native TTL
	// may implement it as a no-op.
	PurgeExpired(ctx context.Context, now time.Time) error
}

// IssueResult is what the web session shows the user.
type IssueResult struct {
	Code      string `json:"code"`
	ExpiresIn int    `json:"expiresIn"`
}

// RedeemResult hands the stored credential to the desktop client.
type RedeemResult struct {
	Credential string `json:"credential"`
	User       string `json:"user,omitempty"`
}

// CodeBroker issues and redeems short-lived single-use 6-digit codes that
// carry a credential from a web session to a desktop process. Expired
// records are purged lazily at the top of every operation instead of by a
// background timer, which stays correct across cold starts.
type CodeBroker struct {
	store         CodeStore
	origins       *OriginPolicy
	desktopSecret string
	ttl           time.Duration
	clock         func() time.Time
}

func NewCodeBroker(store CodeStore, origins *OriginPolicy, desktopSecret string, ttl time.Duration) *CodeBroker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CodeBroker{
		store:         store,
		origins:       origins,
		desktopSecret: desktopSecret,
		ttl:           ttl,
		clock:         time.Now,
	}
}

// NewCodeBrokerWithClock is test-only for deterministic expiry.
func NewCodeBrokerWithClock(store CodeStore, origins *OriginPolicy, desktopSecret string, ttl time.Duration, clock func() time.Time) *CodeBroker {
	b := NewCodeBroker(store, origins, desktopSecret, ttl)
	b.clock = clock
	return b
}

// Issue stores credential under a fresh 6-digit code. The request must come
// from an allow-listed origin and carry a credential.
func (b *CodeBroker) Issue(ctx context.Context, origin, referer, credential, user string) (IssueResult, error) {
	now := b.clock()
	if err := b.store.PurgeExpired(ctx, now); err != nil {
		return IssueResult{}, err
	}
	if !b.origins.Allows(origin, referer) {
		return IssueResult{}, domain.ErrOriginNotAllowed
	}
	if credential == "" {
		return IssueResult{}, &domain.ValidationError{Issues: []string{"credential is required"}}
	}

	code, err := b.freshCode(ctx)
	if err != nil {
		return IssueResult{}, err
	}
	record := domain.AuthCode{
		Code:       code,
		Credential: credential,
		User:       user,
		ExpiresAt:  now.Add(b.ttl),
	}
	if err := b.store.Put(ctx, record); err != nil {
		return IssueResult{}, err
	}
	return IssueResult{Code: code, ExpiresIn: int(b.ttl.Seconds())}, nil
}

// Redeem exchanges a code for its credential. A code redeems at most once:
// on success the record stays behind marked used with its credential
// blanked, so a retry gets "gone" instead of the not-found an attacker's
// guess would get. The husk goes away with the next expiry purge.
func (b *CodeBroker) Redeem(ctx context.Context, code, callerSecret string) (RedeemResult, error) {
	now := b.clock()
	if err := b.store.PurgeExpired(ctx, now); err != nil {
		return RedeemResult{}, err
	}
	if b.desktopSecret == "" || subtle.ConstantTimeCompare([]byte(callerSecret), []byte(b.desktopSecret)) != 1 {
		return RedeemResult{}, domain.ErrForbidden
	}
	if !wellFormedCode(code) {
		return RedeemResult{}, &domain.ValidationError{Issues: []string{"code must be exactly 6 digits"}}
	}

	record, ok, err := b.store.Get(ctx, code)
	if err != nil {
		return RedeemResult{}, err
	}
	if !ok {
		return RedeemResult{}, domain.ErrCodeNotFound
	}
	if now.After(record.ExpiresAt) {
		// Expired codes are indistinguishable from codes that never existed.
		if err := b.store.Delete(ctx, code); err != nil {
			return RedeemResult{}, err
		}
		return RedeemResult{}, domain.ErrCodeNotFound
	}
	if record.Used {
		return RedeemResult{}, domain.ErrCodeRedeemed
	}

	spent := record
	spent.Used = true
	spent.Credential = ""
	if err := b.store.Put(ctx, spent); err != nil {
		return RedeemResult{}, err
	}
	return RedeemResult{Credential: record.Credential, User: record.User}, nil
}

// freshCode generates codes until one does not collide with a live record.
func (b *CodeBroker) freshCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 20; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		_, exists, err := b.store.Get(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate an unused code")
}

// randomCode draws a 6-digit code (100000-999999) from crypto/rand.
func randomCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 900000
	return fmt.Sprintf("%06d", 100000+n), nil
}

func wellFormedCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
