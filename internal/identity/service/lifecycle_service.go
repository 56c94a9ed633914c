// Package service orchestrates the credential lifecycle: registration,
// authentication, email verification, password and email changes, and
// one-time-password challenges.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "mymarket/backend/internal/account/domain"
	accountrepo "mymarket/backend/internal/account/repository"
	"mymarket/backend/internal/notification"
	"mymarket/backend/internal/security"
	"mymarket/backend/internal/verification"
)

// Sentinel errors for the lifecycle service; the HTTP layer maps them to
// status codes. Credential failures carry no detail about which field was wrong.
var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrAccountNotFound  = errors.New("account not found")
	ErrNotVerified      = errors.New("account is not verified")
	ErrPasswordMismatch = errors.New("invalid credentials")
)

// Session holds the outcome of Authenticate or RefreshSession.
type Session struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry
}

// RegisterParams carries the typed registration request.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Bio       string
	Role      accountdomain.Role
}

// RegisterResult holds the new account id and the raw verification token for
// out-of-band delivery.
type RegisterResult struct {
	AccountID         string
	VerificationToken string
}

// AccountRepo is the minimal account store needed by the lifecycle service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateEmail(ctx context.Context, id, email string) error
}

// TokenIssuer issues and consumes email-verification tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, accountID string) (string, error)
	Consume(ctx context.Context, raw string) (string, error)
}

// OTPProvider generates and validates one-time passwords.
type OTPProvider interface {
	Generate(ctx context.Context, accountID string) (string, time.Time, error)
	Validate(ctx context.Context, accountID, code string) error
}

// PasswordHasher hashes and verifies passwords. Satisfied by *security.HashPool.
type PasswordHasher interface {
	Hash(ctx context.Context, password []byte) (string, error)
	Verify(ctx context.Context, password []byte, digest string) error
}

// MailSender delivers verification tokens and OTP codes out of band.
type MailSender interface {
	SendVerificationToken(ctx context.Context, email, token string) error
	SendOTP(ctx context.Context, email, code string) error
}

// LifecycleService implements the credential lifecycle flows. It is stateless
// between calls; every invariant that matters is enforced by the store.
type LifecycleService struct {
	accounts      AccountRepo
	tokens        TokenIssuer
	otp           OTPProvider
	hasher        PasswordHasher
	sessionTokens *security.TokenProvider
	notifications notification.Recorder
	mailer        MailSender
	now           func() time.Time
}

// NewLifecycleService returns a LifecycleService with the given dependencies.
func NewLifecycleService(
	accounts AccountRepo,
	tokens TokenIssuer,
	otp OTPProvider,
	hasher PasswordHasher,
	sessionTokens *security.TokenProvider,
	notifications notification.Recorder,
	mailer MailSender,
) *LifecycleService {
	return &LifecycleService{
		accounts:      accounts,
		tokens:        tokens,
		otp:           otp,
		hasher:        hasher,
		sessionTokens: sessionTokens,
		notifications: notifications,
		mailer:        mailer,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified account, issues a verification token, and
// hands the token to the mail collaborator. The raw token is also returned
// for callers that deliver it themselves.
func (s *LifecycleService) Register(ctx context.Context, p RegisterParams) (*RegisterResult, error) {
	email := accountdomain.NormalizeEmail(p.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(p.Password); err != nil {
		return nil, err
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(ctx, []byte(p.Password))
	if err != nil {
		return nil, err
	}

	now := s.now()
	acct := &accountdomain.Account{
		ID:                 uuid.New().String(),
		Email:              email,
		PasswordHash:       hash,
		FirstName:          strings.TrimSpace(p.FirstName),
		LastName:           strings.TrimSpace(p.LastName),
		Bio:                strings.TrimSpace(p.Bio),
		Role:               p.Role,
		VerificationStatus: accountdomain.StatusUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		// The unique index decides races between concurrent registrations.
		if errors.Is(err, accountrepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerificationToken(ctx, acct.Email, token); err != nil {
		return nil, err
	}
	if err := s.record(ctx, acct.ID, notification.KindSignUp, "Welcome to MyMarket"); err != nil {
		return nil, err
	}

	return &RegisterResult{AccountID: acct.ID, VerificationToken: token}, nil
}

// Authenticate verifies email and password for a verified account and mints
// an access/refresh token pair.
func (s *LifecycleService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	acct, err := s.accounts.GetByEmail(ctx, accountdomain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if !acct.Verified() {
		return nil, ErrNotVerified
	}
	if err := s.verifyPassword(ctx, password, acct.PasswordHash); err != nil {
		return nil, err
	}
	return s.mintSession(acct.ID)
}

// RefreshSession validates the refresh token and, after re-checking that the
// account still exists, mints a new token pair. The refresh token is not
// rotated; it stays valid until its own expiry.
func (s *LifecycleService) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.sessionTokens.Verify(refreshToken, security.TokenClassRefresh)
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	return s.mintSession(acct.ID)
}

// RequestVerification issues a fresh verification token for an existing,
// not-yet-verified account and hands it to the mail collaborator.
func (s *LifecycleService) RequestVerification(ctx context.Context, accountID string) (string, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrAccountNotFound
	}
	if acct.Verified() {
		return "", verification.ErrAlreadyVerified
	}
	token, err := s.tokens.Issue(ctx, acct.ID)
	if err != nil {
		return "", err
	}
	if err := s.mailer.SendVerificationToken(ctx, acct.Email, token); err != nil {
		return "", err
	}
	return token, nil
}

// RequestVerificationByEmail issues a fresh verification token for the
// account registered under email. Serves the public resend flow, where the
// caller cannot hold a session because login requires a verified account.
func (s *LifecycleService) RequestVerificationByEmail(ctx context.Context, email string) (string, error) {
	acct, err := s.accounts.GetByEmail(ctx, accountdomain.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrAccountNotFound
	}
	return s.RequestVerification(ctx, acct.ID)
}

// ConfirmVerification consumes the raw token and returns the verified
// account's id. Single-use and expiry are enforced by the store.
func (s *LifecycleService) ConfirmVerification(ctx context.Context, rawToken string) (string, error) {
	return s.tokens.Consume(ctx, rawToken)
}

// RequestOTP generates a one-time password for the account and hands it to
// the mail collaborator. Returns the raw code and its expiry.
func (s *LifecycleService) RequestOTP(ctx context.Context, accountID string) (string, time.Time, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", time.Time{}, err
	}
	if acct == nil {
		return "", time.Time{}, ErrAccountNotFound
	}
	code, expiresAt, err := s.otp.Generate(ctx, acct.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.mailer.SendOTP(ctx, acct.Email, code); err != nil {
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// ConfirmOTP validates the code for the account. Success consumes the code.
func (s *LifecycleService) ConfirmOTP(ctx context.Context, accountID, code string) error {
	return s.otp.Validate(ctx, accountID, code)
}

// ChangePassword replaces the password after the current one verifies.
func (s *LifecycleService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrAccountNotFound
	}
	if err := s.verifyPassword(ctx, oldPassword, acct.PasswordHash); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, []byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		return err
	}
	return s.record(ctx, acct.ID, notification.KindPasswordChanged, "Your password was changed")
}

// ChangeEmail replaces the email after the password verifies and the new
// email proves unique.
func (s *LifecycleService) ChangeEmail(ctx context.Context, accountID, password, newEmail string) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrAccountNotFound
	}
	if err := s.verifyPassword(ctx, password, acct.PasswordHash); err != nil {
		return err
	}
	email := accountdomain.NormalizeEmail(newEmail)
	if err := validateEmail(email); err != nil {
		return err
	}
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != acct.ID {
		return ErrEmailTaken
	}
	if err := s.accounts.UpdateEmail(ctx, acct.ID, email); err != nil {
		if errors.Is(err, accountrepo.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return err
	}
	return s.record(ctx, acct.ID, notification.KindEmailChanged, "Your email address was changed")
}

func (s *LifecycleService) mintSession(accountID string) (*Session, error) {
	access, expiresAt, err := s.sessionTokens.IssueAccess(accountID)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.sessionTokens.IssueRefresh(accountID)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccountID:    accountID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *LifecycleService) verifyPassword(ctx context.Context, password, digest string) error {
	err := s.hasher.Verify(ctx, []byte(password), digest)
	if err == nil {
		return nil
	}
	if errors.Is(err, security.ErrPasswordMismatch) {
		return ErrPasswordMismatch
	}
	return err
}

func (s *LifecycleService) record(ctx context.Context, accountID string, kind notification.Kind, message string) error {
	return s.notifications.Record(ctx, &notification.Notification{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now(),
	})
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// validatePassword enforces the minimum password policy: at least 8
// characters with at least one letter and one digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
