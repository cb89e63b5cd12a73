package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "payments-admin"

// ErrInvalidSession is returned for missing, expired or tampered sessions
var ErrInvalidSession = errors.New("invalid session")

// SessionClaims are the claims carried by the site-admin session cookie
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionCodec issues and verifies HS256-signed session tokens
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionCodec creates a session codec. An empty secret yields a codec
// that never verifies anything.
func NewSessionCodec(secret string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether the codec has a signing secret
func (s *SessionCodec) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Issue signs a session for subject
func (s *SessionCodec) Issue(subject string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("session secret not configured")
	}
	if subject == "" {
		return "", fmt.Errorf("session subject required")
	}

	now := s.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates a session token and returns its subject
func (s *SessionCodec) Verify(tokenString string) (string, error) {
	if !s.Enabled() || tokenString == "" {
		return "", ErrInvalidSession
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidSession
	}

	return claims.Subject, nil
}
