package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is stamped on every admin token this server mints.
	Issuer    = "quizhub"
	roleAdmin = "admin"
)

var (
	ErrMissingToken = errors.New("admin token is required")
	ErrNotAdminRole = errors.New("token does not carry the admin role")
	ErrWrongIssuer  = errors.New("token was issued by another service")
)

type adminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AdminTokens mints and verifies HS256 admin tokens.
type AdminTokens struct {
	secret []byte
	now    func() time.Time
}

func NewAdminTokens(secret string) (*AdminTokens, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	return &AdminTokens{secret: []byte(secret), now: time.Now}, nil
}

// Issue mints a token for subject valid for ttl.
func (a *AdminTokens) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := a.now()
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: roleAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// AuthorizeAdmin accepts a current, correctly signed token with the admin role.
// Tokens from the REST login carry no issuer; an issuer, when present, must be ours.
func (a *AdminTokens) AuthorizeAdmin(token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return ErrMissingToken
	}
	var claims adminClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("verify admin token: %w", err)
	}
	if claims.Issuer != "" && claims.Issuer != Issuer {
		return ErrWrongIssuer
	}
	if claims.Role != roleAdmin {
		return ErrNotAdminRole
	}
	return nil
}
