// ABOUTME: JWT verification for host login identity assertions
// ABOUTME: Uses HS256 signing with configurable secret

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity assertion errors
var (
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrExpiredAssertion = errors.New("identity assertion expired")
	ErrMissingClaim     = errors.New("missing required claim")
)

// LoginVerifier verifies identity assertions minted by the host login flow.
// The consent endpoint uses it to learn which user is approving a request;
// it plays no part in bearer-token authentication.
type LoginVerifier interface {
	Verify(assertion string) (userID string, err error)
}

// JWTVerifier implements LoginVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWT verifier with the given secret
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify validates the assertion and extracts the user ID from the "sub" claim
func (v *JWTVerifier) Verify(assertion string) (userID string, err error) {
	token, err := jwt.Parse(assertion, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredAssertion
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	if !token.Valid {
		return "", ErrInvalidAssertion
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidAssertion
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}

// Generate creates a new identity assertion for the given user ID with expiration.
// Used by the host login flow (and tests) to mint the cookie value.
func (v *JWTVerifier) Generate(userID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
