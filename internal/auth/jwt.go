// Package auth verifies the bearer credentials issued by the account service.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

var ErrEmptySecret = errors.New("jwt secret is empty")

// Claims mirrors the token minted at signin: {"userId": "..."} plus the
// registered claims (exp is honoured when present).
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens against a process-wide secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Verify returns the user identity carried by token. Every structural,
// cryptographic or expiry failure is reported as core.ErrAuth.
func (v *JWTVerifier) Verify(token string) (domain.UserID, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", core.ErrAuth)
	}
	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.key); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrAuth, err)
	}
	uid, err := domain.ParseUserID(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrAuth, err)
	}
	return uid, nil
}

func (v *JWTVerifier) key(*jwt.Token) (any, error) { return v.secret, nil }

// Sign mints a token for uid. The account service owns signin; this exists
// for tooling and tests that need a credential the verifier accepts.
func Sign(secret string, uid domain.UserID, opts ...func(*Claims)) (string, error) {
	claims := Claims{UserID: string(uid)}
	for _, opt := range opts {
		opt(&claims)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
