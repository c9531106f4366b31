package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bibliafides/backend/internal/config"
)

var (
	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for a token past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrMissingToken is returned when the request carries no token.
	ErrMissingToken = errors.New("missing bearer token")
)

// User is the identity asserted by the identity provider.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Claims is the token payload: the subject is the user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier builds a verifier from cfg.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
}

// Verify parses the token and returns the user it identifies.
func (v *Verifier) Verify(tokenString string) (User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return User{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, ErrExpiredToken
		}
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return User{}, ErrInvalidToken
	}

	return User{ID: claims.Subject, Name: claims.Name}, nil
}

// Issue mints a token for user valid for ttl. Used by the operator CLI and tests.
func (v *Verifier) Issue(user User, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
