// Package auth issues and verifies the bearer tokens that bind an HTTP
// client to one viewer session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "heatmap-viewer"

// Claims identify the viewer a token grants access to.
type Claims struct {
	ViewerID string `json:"vid"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 viewer tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer using secret; tokens expire after ttl.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for viewerID.
func (s *Signer) Issue(viewerID string) (string, error) {
	now := s.now()
	claims := Claims{
		ViewerID: viewerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   viewerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of raw and returns the viewer id.
func (s *Signer) Verify(raw string) (string, error) {
	return s.parse(raw, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
}

// Subject checks the signature and issuer of raw but not its expiry, and
// returns the viewer id. Callers that track session liveness themselves use
// it so an active session outlives its first token.
func (s *Signer) Subject(raw string) (string, error) {
	viewerID, err := s.parse(raw, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return viewerID, nil
}

func (s *Signer) parse(raw string, opts ...jwt.ParserOption) (string, error) {
	var claims Claims
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Issuer != issuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.ViewerID == "" || claims.ViewerID != claims.Subject {
		return "", fmt.Errorf("%w: missing viewer id", ErrInvalidToken)
	}
	return claims.ViewerID, nil
}
