package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var testAccount = &models.Account{ID: "acc-1", Email: "alice@example.com"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newIssuer(t *testing.T, opts ...IssuerOption) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer([]byte("super-secret"), 15*time.Minute, opts...)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}
	return iss
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(now time.Time) AccessClaims {
	return AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Email:   "alice@example.com",
		Type:    AccessTokenType,
		Version: ClaimsVersion,
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer(nil, time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenIssuer([]byte("k"), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	iss := newIssuer(t, WithClock(fixedClock(now)))

	tok, err := iss.Issue(testAccount)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Type != "access" || claims.Version != 1 {
		t.Fatalf("unexpected schema: typ=%q ver=%d", claims.Type, claims.Version)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("lifetime = %s, want 15m", got)
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issueAt := newIssuer(t, WithClock(fixedClock(now)))
	tok, err := issueAt.Issue(testAccount)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	later := newIssuer(t, WithClock(fixedClock(now.Add(16*time.Minute))))
	if _, err := later.Parse(tok); !errors.Is(err, common.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newIssuer(t).Issue(testAccount)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	other, _ := NewTokenIssuer([]byte("another-secret"), time.Minute)
	if _, err := other.Parse(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newIssuer(t)
	secret := []byte("super-secret")

	noSub := validClaims(now)
	noSub.Subject = ""

	refreshTyp := validClaims(now)
	refreshTyp.Type = "refresh"

	noTyp := validClaims(now)
	noTyp.Type = ""

	futureVer := validClaims(now)
	futureVer.Version = 2

	noExp := validClaims(now)
	noExp.ExpiresAt = nil

	cases := map[string]string{
		"missing sub": sign(t, jwt.SigningMethodHS256, secret, noSub),
		"refresh typ": sign(t, jwt.SigningMethodHS256, secret, refreshTyp),
		"missing typ": sign(t, jwt.SigningMethodHS256, secret, noTyp),
		"future ver":  sign(t, jwt.SigningMethodHS256, secret, futureVer),
		"missing exp": sign(t, jwt.SigningMethodHS256, secret, noExp),
		"HS512":       sign(t, jwt.SigningMethodHS512, secret, validClaims(now)),
		"alg none":    sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(now)),
		"garbage":     "not.a.jwt",
		"empty":       "",
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := iss.Parse(tok); !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParse_ToleratesUnknownClaims(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   "acc-1",
		"email": "alice@example.com",
		"typ":   "access",
		"ver":   1,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Minute).Unix(),
		"role":  "admin",
	}
	tok := sign(t, jwt.SigningMethodHS256, []byte("super-secret"), claims)

	if _, err := newIssuer(t).Parse(tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_Issuer(t *testing.T) {
	t.Parallel()

	a := newIssuer(t, WithIssuer("sessionkeeper"))
	tok, err := a.Issue(testAccount)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := a.Parse(tok); err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	foreign := newIssuer(t)
	foreignTok, _ := foreign.Issue(testAccount)
	if _, err := a.Parse(foreignTok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch to fail, got %v", err)
	}
}
