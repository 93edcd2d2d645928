package jwtx

// Signer is our interface for anything that can sign access tokens.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// NewSignerHS256 creates an HS256 signer from raw secret bytes. The secret
// is process-wide configuration: loaded once at startup and immutable for
// the process lifetime. Swapping it invalidates every outstanding token
// that has not yet expired - an accepted consequence of symmetric signing,
// not a bug.
func NewSignerHS256(secret []byte) (Signer, error) {
	return newHS256Signer(secret)
}
