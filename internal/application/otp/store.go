package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maapaap/api/internal/domain"
	"github.com/maapaap/api/internal/pkg/id"
	pkgotp "github.com/maapaap/api/internal/pkg/otp"
)

// DurableStore is the authoritative OTP record keeper.
type DurableStore interface {
	Put(ctx context.Context, o *domain.OneTimePasscode) error
	FindLatestActive(ctx context.Context, identifier, code, purpose string, now time.Time) (*domain.OneTimePasscode, error)
	MarkUsed(ctx context.Context, otpID string) error
}

// Cache is the advisory fast-cache shadow. Any of its calls may fail without
// affecting correctness.
type Cache interface {
	Set(ctx context.Context, identifier, purpose, code string, ttl time.Duration) error
	Get(ctx context.Context, identifier, purpose string) (string, bool, error)
	Delete(ctx context.Context, identifier, purpose string) error
}

// Store issues and verifies one-time passcodes against a durable store, with
// a read-through cache shadow bounding the common verify to one fast lookup.
type Store struct {
	durable    DurableStore
	cache      Cache
	codeLength int
	ttl        time.Duration
}

func NewStore(durable DurableStore, cache Cache, codeLength int, ttl time.Duration) *Store {
	return &Store{durable: durable, cache: cache, codeLength: codeLength, ttl: ttl}
}

// TTL reports the configured code lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue generates a fresh code, persists the durable row, and writes the
// cache shadow with the same TTL. A cache write failure is logged and
// swallowed — the durable row alone is enough for verification.
func (s *Store) Issue(ctx context.Context, identifier, purpose string) (string, error) {
	code, err := pkgotp.Generate(s.codeLength)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	o := &domain.OneTimePasscode{
		OTPID:      id.New(),
		Identifier: identifier,
		Code:       code,
		Purpose:    purpose,
		Used:       false,
		CreatedAt:  now.Format(time.RFC3339),
		ExpiresAt:  now.Add(s.ttl).Unix(),
	}
	if err := s.durable.Put(ctx, o); err != nil {
		return "", fmt.Errorf("persist otp: %w", err)
	}
	if err := s.cache.Set(ctx, identifier, purpose, code, s.ttl); err != nil {
		slog.Warn("otp cache write failed, durable row stands alone", "identifier", identifier, "err", err)
	}
	return code, nil
}

// Verify consumes a code. The cache shadow is consulted first; hit or miss,
// the durable row is what actually gets consumed, so single use holds even
// when the shadow is stale and expired codes never validate even if still
// cached. A cache transport error counts as a miss; a durable store error is
// surfaced to the caller.
func (s *Store) Verify(ctx context.Context, identifier, code, purpose string) (bool, error) {
	cached, found, err := s.cache.Get(ctx, identifier, purpose)
	if err != nil {
		slog.Warn("otp cache read failed, falling back to durable store", "identifier", identifier, "err", err)
		found = false
	}

	if found && subtle.ConstantTimeCompare([]byte(cached), []byte(code)) == 1 {
		ok, err := s.consume(ctx, identifier, code, purpose)
		if err != nil {
			return false, err
		}
		// Spent or stale either way — evict the shadow.
		s.evict(ctx, identifier, purpose)
		return ok, nil
	}

	// Shadow absent or mismatched. The supplied code may still match an older
	// live row, so fall through to the durable lookup.
	ok, err := s.consume(ctx, identifier, code, purpose)
	if err != nil {
		return false, err
	}
	if ok {
		s.evict(ctx, identifier, purpose)
	}
	return ok, nil
}

// consume marks the most recent matching live row used. Exactly one of any
// concurrent callers wins the conditional update; the rest see the row
// already consumed and fail. A wrong code matches no row and consumes nothing.
func (s *Store) consume(ctx context.Context, identifier, code, purpose string) (bool, error) {
	o, err := s.durable.FindLatestActive(ctx, identifier, code, purpose, time.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.durable.MarkUsed(ctx, o.OTPID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) evict(ctx context.Context, identifier, purpose string) {
	if err := s.cache.Delete(ctx, identifier, purpose); err != nil {
		slog.Warn("otp cache evict failed, shadow will age out by TTL", "identifier", identifier, "err", err)
	}
}
