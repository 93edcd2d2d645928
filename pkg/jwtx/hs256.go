package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest secret we accept for HMAC signing. Anything
// shorter than the HS256 output size weakens the MAC.
const MinSecretBytes = 32

// hs256Signer signs tokens with HMAC-SHA256 and a shared symmetric secret.
type hs256Signer struct {
	secret []byte
}

func newHS256Signer(secret []byte) (*hs256Signer, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", MinSecretBytes, len(secret))
	}
	return &hs256Signer{secret: secret}, nil
}

func (s *hs256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *hs256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// hs256Verifier validates HS256 tokens against the shared secret.
type hs256Verifier struct {
	secret []byte
	opts   VerifyOptions
}

func newHS256Verifier(secret []byte, opts VerifyOptions) (*hs256Verifier, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", MinSecretBytes, len(secret))
	}
	return &hs256Verifier{secret: secret, opts: opts}, nil
}

// Verify validates the token string and returns its parsed Claims. Failures
// are classified into the package sentinels: ErrMalformed, ErrInvalidSig,
// ErrUnsupported, ErrExpired, ErrNotYetValid, ErrIssuer, or the generic
// ErrInvalid for anything else.
func (v *hs256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithLeeway(v.opts.Leeway))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// Reject anything that isn't HS256, including alg=none. The
		// method check happens before signature verification, so a
		// wrong algorithm surfaces as ErrUnsupported rather than a
		// signature failure.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnsupported
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalid
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// classifyParseError maps golang-jwt parse failures onto the package
// sentinels. Signature verification runs before claim validation in the
// parser, so a tampered token always reports a signature failure even when
// its claimed expiry has passed.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, ErrUnsupported):
		// Our keyfunc error comes back wrapped in ErrTokenUnverifiable.
		return ErrUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return ErrInvalid
	}
}
