// Package token issues and verifies the signed identity tokens used as bearer credentials.
package token

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Lifetime is the fixed validity window of an identity token.
const Lifetime = 24 * time.Hour

// Claims is the payload carried by an identity token. The subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 identity tokens.
type Service struct {
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source, used by tests to cross the expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger for verification diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service bound to the signing secret.
func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret required")
	}
	s := &Service{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue produces a token for userID that expires Lifetime after issuance.
func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("token: user id required")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the user id bound to tokenString. Every failure, whether a bad
// signature, a malformed payload or an expired token, yields shared.ErrUnauthenticated.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("token rejected", slog.Any("error", err))
		}
		return "", shared.ErrUnauthenticated
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", shared.ErrUnauthenticated
	}
	return claims.Subject, nil
}
