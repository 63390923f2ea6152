package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type Claims struct {
	IdentityID string    `json:"identity_id"`
	Role       string    `json:"role"`
	Kind       TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type signer struct {
	secret []byte
	ttl    time.Duration
}

// TokenIssuer mints and decodes HS256 session tokens. Access and refresh
// tokens are signed with separate secrets.
type TokenIssuer struct {
	issuer string
	keys   map[TokenKind]signer
	now    func() time.Time
}

func NewTokenIssuer(issuer, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("JWT secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	return &TokenIssuer{
		issuer: issuer,
		keys: map[TokenKind]signer{
			AccessToken:  {secret: []byte(accessSecret), ttl: accessTTL},
			RefreshToken: {secret: []byte(refreshSecret), ttl: refreshTTL},
		},
		now: time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) IssueAccessToken(identityID, role string) (string, error) {
	return t.issue(AccessToken, identityID, role)
}

func (t *TokenIssuer) IssueRefreshToken(identityID, role string) (string, error) {
	return t.issue(RefreshToken, identityID, role)
}

func (t *TokenIssuer) issue(kind TokenKind, identityID, role string) (string, error) {
	key := t.keys[kind]
	now := t.now()
	claims := Claims{
		IdentityID: identityID,
		Role:       role,
		Kind:       kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of a token of the given kind.
// A bad signature or malformed token yields ErrTokenInvalid; a well-formed,
// correctly signed but expired token yields ErrTokenExpired.
func (t *TokenIssuer) Decode(tokenString string, kind TokenKind) (*Claims, error) {
	key, ok := t.keys[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrTokenInvalid, kind)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(t.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Kind != kind || claims.IdentityID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
