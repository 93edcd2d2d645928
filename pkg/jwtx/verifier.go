package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	// Because time sync is never perfect.
	Leeway time.Duration
}

// Verification failures are kept distinct so callers can report them
// differently: an expired token is not a forged one, and an unsupported
// algorithm is neither.
var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrUnsupported = errors.New("jwtx: unsupported algorithm")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrInvalid     = errors.New("jwtx: invalid token")
)

// NewVerifierHS256 creates a Verifier for HS256 tokens signed with the
// given symmetric secret.
func NewVerifierHS256(secret []byte, opts VerifyOptions) (Verifier, error) {
	return newHS256Verifier(secret, opts)
}
