package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maapaap/api/internal/domain"
	jwtinfra "github.com/maapaap/api/internal/infrastructure/jwt"
	"github.com/maapaap/api/internal/infrastructure/smtp"
	"github.com/maapaap/api/internal/infrastructure/sns"
	"github.com/maapaap/api/internal/pkg/id"
	"github.com/maapaap/api/internal/pkg/tokenhash"
)

// OTPStore issues and verifies one-time passcodes.
type OTPStore interface {
	Issue(ctx context.Context, identifier, purpose string) (string, error)
	Verify(ctx context.Context, identifier, code, purpose string) (bool, error)
	TTL() time.Duration
}

// UserStore resolves, creates, and updates user records.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByIdentifier(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.User, error)
	CreateWithIdentifier(ctx context.Context, u *domain.User, identifier string) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// SessionStore persists live bearer-token sessions.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, userID, tokenHash string) (*domain.Session, error)
	Delete(ctx context.Context, userID, tokenHash string) error
}

// TokenIssuer mints and verifies signed bearer tokens.
type TokenIssuer interface {
	Sign(userID, email, phone string) (string, error)
}

type Service interface {
	// SendOTP issues a login code for the identifier and delivers it over the
	// channel the kind names. Returns the code lifetime in whole minutes.
	SendOTP(ctx context.Context, identifier string, kind domain.IdentifierKind) (int, error)
	// VerifyOTP consumes the code, resolves (or lazily creates) the user, and
	// returns the user with a fresh session-backed bearer token.
	VerifyOTP(ctx context.Context, identifier, code string, kind domain.IdentifierKind) (*domain.User, string, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, userID, token string) error
	// IsSessionLive reports whether the exact token still has an unexpired
	// session row. Revoked or superseded tokens fail here even though their
	// signature still verifies.
	IsSessionLive(ctx context.Context, userID, token string) (bool, error)
}

// ServiceDeps carries everything the auth service needs.
type ServiceDeps struct {
	OTPs       OTPStore
	Users      UserStore
	Sessions   SessionStore
	Mailer     smtp.Mailer
	SMSSender  sns.SMSSender
	Issuer     TokenIssuer
	SessionTTL time.Duration
}

type service struct {
	otps       OTPStore
	users      UserStore
	sessions   SessionStore
	mailer     smtp.Mailer
	smsSender  sns.SMSSender
	issuer     TokenIssuer
	sessionTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otps:       deps.OTPs,
		users:      deps.Users,
		sessions:   deps.Sessions,
		mailer:     deps.Mailer,
		smsSender:  deps.SMSSender,
		issuer:     deps.Issuer,
		sessionTTL: deps.SessionTTL,
	}
}

func (s *service) SendOTP(ctx context.Context, identifier string, kind domain.IdentifierKind) (int, error) {
	code, err := s.otps.Issue(ctx, identifier, domain.PurposeLogin)
	if err != nil {
		return 0, err
	}
	minutes := int(s.otps.TTL() / time.Minute)
	msg := fmt.Sprintf("Your Maap Aap login code is %s. It expires in %d minutes.", code, minutes)
	if kind == domain.IdentifierPhone {
		err = s.smsSender.SendSMS(ctx, identifier, msg)
	} else {
		err = s.mailer.SendEmail(identifier, "Your Maap Aap login code", msg)
	}
	if err != nil {
		return 0, fmt.Errorf("deliver otp: %w", err)
	}
	return minutes, nil
}

func (s *service) VerifyOTP(ctx context.Context, identifier, code string, kind domain.IdentifierKind) (*domain.User, string, error) {
	ok, err := s.otps.Verify(ctx, identifier, code, domain.PurposeLogin)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		// Wrong and expired collapse into one answer so a guesser learns
		// nothing about which it was.
		return nil, "", fmt.Errorf("invalid or expired OTP: %w", domain.ErrUnauthorized)
	}

	u, err := s.resolveOrCreate(ctx, identifier, kind)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Sign(u.UserID, u.Email, u.Phone)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		UserID:    u.UserID,
		TokenHash: tokenhash.Hash(token),
		ExpiresAt: now.Add(s.sessionTTL).Unix(),
		CreatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// resolveOrCreate maps a verified identifier to its user record, creating one
// on first login. The matching verified flag is set at creation — reaching
// this point already proved control of the identifier. Two concurrent first
// logins race on the store's identifier guard; the loser re-fetches the
// winner's row instead of creating a duplicate.
func (s *service) resolveOrCreate(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.User, error) {
	u, err := s.users.GetByIdentifier(ctx, identifier, kind)
	if err == nil {
		return u, s.ensureVerified(ctx, u, kind)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u = &domain.User{
		UserID:    id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind == domain.IdentifierPhone {
		u.Phone = identifier
		u.PhoneVerified = true
	} else {
		u.Email = identifier
		u.EmailVerified = true
	}

	err = s.users.CreateWithIdentifier(ctx, u, identifier)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, domain.ErrConflict) {
		return s.users.GetByIdentifier(ctx, identifier, kind)
	}
	return nil, err
}

// ensureVerified backfills the verified flag for the channel the user just
// proved control of. Pre-provisioned users can exist with the flag unset.
func (s *service) ensureVerified(ctx context.Context, u *domain.User, kind domain.IdentifierKind) error {
	if kind == domain.IdentifierPhone {
		if u.PhoneVerified {
			return nil
		}
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"phone_verified": true}); err != nil {
			return err
		}
		u.PhoneVerified = true
		return nil
	}
	if u.EmailVerified {
		return nil
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"email_verified": true}); err != nil {
		return err
	}
	u.EmailVerified = true
	return nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) Logout(ctx context.Context, userID, token string) error {
	return s.sessions.Delete(ctx, userID, tokenhash.Hash(token))
}

func (s *service) IsSessionLive(ctx context.Context, userID, token string) (bool, error) {
	sess, err := s.sessions.Get(ctx, userID, tokenhash.Hash(token))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.ExpiresAt > time.Now().Unix(), nil
}

// compile-time check that the jwt provider satisfies TokenIssuer.
var _ TokenIssuer = (*jwtinfra.Provider)(nil)
