package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClass distinguishes access tokens from refresh tokens. Each class is
// signed with its own secret; a token of one class is never accepted where
// the other is required.
type TokenClass string

const (
	// TokenClassAccess is the short-lived per-request credential.
	TokenClassAccess TokenClass = "access"
	// TokenClassRefresh is the long-lived credential used only to mint new access tokens.
	TokenClassRefresh TokenClass = "refresh"
)

// Verification failure modes. Callers use the distinction to decide whether
// to prompt re-login (expired, bad signature) or reject outright (wrong class).
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrWrongTokenClass  = errors.New("wrong token class")
)

// Claims holds the signed assertion carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	TokenClass TokenClass `json:"token_class"`
}

// AccountID returns the account the token was issued for.
func (c *Claims) AccountID() string { return c.Subject }

// TokenProvider issues and verifies HS256-signed access and refresh tokens.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenProvider returns a TokenProvider signing each token class with its
// own secret and lifetime.
func NewTokenProvider(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess issues a short-lived access token for accountID.
// Returns the signed token and its expiration time.
func (p *TokenProvider) IssueAccess(accountID string) (string, time.Time, error) {
	return p.issue(accountID, TokenClassAccess, p.accessSecret, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh token for accountID.
// Returns the signed token and its expiration time.
func (p *TokenProvider) IssueRefresh(accountID string) (string, time.Time, error) {
	return p.issue(accountID, TokenClassRefresh, p.refreshSecret, p.refreshTTL)
}

func (p *TokenProvider) issue(accountID string, class TokenClass, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenClass: class,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses tokenString, checks its signature against the secret for
// expected, and checks expiry and class. The class check runs against the
// parsed claims even when the signature check already failed, so a refresh
// token presented as an access token fails ErrWrongTokenClass even though
// the secrets differ; a tampered token of the right class fails
// ErrInvalidSignature.
func (p *TokenProvider) Verify(tokenString string, expected TokenClass) (*Claims, error) {
	secret := p.accessSecret
	if expected == TokenClassRefresh {
		secret = p.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			// Signature failures include the right-class-wrong-secret case;
			// report a class mismatch when the claims say so.
			if claims.TokenClass != "" && claims.TokenClass != expected {
				return nil, ErrWrongTokenClass
			}
			return nil, ErrInvalidSignature
		}
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.TokenClass != expected {
		return nil, ErrWrongTokenClass
	}
	if claims.Subject == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
