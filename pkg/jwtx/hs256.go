package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints signed session credentials.
type Signer interface {
	Sign(SessionClaims) (string, error)
}

// Verifier validates a session credential and returns its claims if legit.
type Verifier interface {
	Verify(token string) (SessionClaims, error)
}

// HS256Codec signs and verifies session credentials with a shared HMAC
// secret. The dashboard both mints and checks its own credentials, so a
// symmetric key is all that's needed.
type HS256Codec struct {
	secret []byte
	issuer string
}

// NewHS256Codec builds a codec from the signing secret. The secret must not
// be empty; the caller is expected to have sourced it from configuration.
func NewHS256Codec(secret []byte, issuer string) (*HS256Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &HS256Codec{secret: secret, issuer: issuer}, nil
}

// Sign turns claims into a signed compact JWT string.
func (c *HS256Codec) Sign(claims SessionClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify parses and verifies a credential. Signature failures and claim
// failures are reported through the package sentinel errors so callers can
// distinguish a tampered credential from an expired one.
func (c *HS256Codec) Verify(tokenStr string) (SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is validated explicitly below so that ErrExpired is
		// distinguishable from a bad signature.
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return SessionClaims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return SessionClaims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return SessionClaims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return SessionClaims{}, err
	}

	return *claims, nil
}
