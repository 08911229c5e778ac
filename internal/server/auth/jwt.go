package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenType is the only accepted value of the typ claim.
	AccessTokenType = "access"
	// ClaimsVersion is bumped whenever the claim layout changes.
	ClaimsVersion = 1
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Type    string `json:"typ"`
	Version int    `json:"ver"`
}

// TokenIssuer signs and verifies HS256 access tokens. It is stateless; a
// token cannot be revoked before it expires.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithIssuer sets the iss claim and requires it on parse.
func WithIssuer(iss string) IssuerOption {
	return func(t *TokenIssuer) { t.issuer = iss }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("non-positive access token lifetime %s", ttl)
	}
	t := &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL is the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

func (t *TokenIssuer) Issue(account *models.Account) (string, error) {
	now := t.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email:   account.Email,
		Type:    AccessTokenType,
		Version: ClaimsVersion,
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

// Parse verifies signature, algorithm and expiry, then the claim schema:
// sub must be present, typ must be "access" and ver must match
// ClaimsVersion. Expired tokens yield common.ErrExpiredToken, anything else
// common.ErrInvalidToken.
func (t *TokenIssuer) Parse(signed string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing sub", common.ErrInvalidToken)
	case claims.Type != AccessTokenType:
		return nil, fmt.Errorf("%w: unexpected typ %q", common.ErrInvalidToken, claims.Type)
	case claims.Version != ClaimsVersion:
		return nil, fmt.Errorf("%w: unsupported ver %d", common.ErrInvalidToken, claims.Version)
	}

	return claims, nil
}
