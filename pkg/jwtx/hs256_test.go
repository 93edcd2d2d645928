package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestPair(t *testing.T, opts VerifyOptions) (Signer, Verifier) {
	t.Helper()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)

	verifier, err := NewVerifierHS256(testSecret, opts)
	require.NoError(t, err)

	return signer, verifier
}

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestPair(t, VerifyOptions{Issuer: "authgate"})

	claims := NewAccessClaims(
		"alice", "01JD3TEST0USER0000000000AA",
		[]string{"ROLE_USER", "ROLE_ADMIN"},
		time.Minute,
		"authgate",
		time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Subject)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "01JD3TEST0USER0000000000AA", got.UID)
	require.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, got.Roles)
}

func TestHS256ExpiredIsNotMalformed(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestPair(t, VerifyOptions{})

	// Issued in the past so the validity window has already elapsed.
	claims := NewAccessClaims("bob", "uid-1", []string{"ROLE_USER"},
		time.Minute, "", time.Now().Add(-2*time.Minute))

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
	require.NotErrorIs(t, err, ErrMalformed)
}

func TestHS256TamperedToken(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestPair(t, VerifyOptions{})

	claims := NewAccessClaims("carol", "uid-2", []string{"ROLE_USER"},
		time.Minute, "", time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	t.Run("payload byte flipped", func(t *testing.T) {
		tampered := parts[0] + "." + flip(parts[1], 4) + "." + parts[2]
		_, err := verifier.Verify(tampered)
		require.Error(t, err)
	})

	t.Run("signature byte flipped", func(t *testing.T) {
		tampered := parts[0] + "." + parts[1] + "." + flip(parts[2], 4)
		_, err := verifier.Verify(tampered)
		require.ErrorIs(t, err, ErrInvalidSig)
	})
}

func TestHS256UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	_, verifier := newTestPair(t, VerifyOptions{})

	// Well-formed token signed with HS384; the verifier only accepts HS256.
	claims := NewAccessClaims("dave", "uid-3", []string{"ROLE_USER"},
		time.Minute, "", time.Now())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrUnsupported)
	require.NotErrorIs(t, err, ErrExpired)
}

func TestHS256Malformed(t *testing.T) {
	t.Parallel()

	_, verifier := newTestPair(t, VerifyOptions{})

	for _, token := range []string{"", "garbage", "a.b", "not!.base.64"} {
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestHS256IssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, verifier := newTestPair(t, VerifyOptions{Issuer: "authgate"})

	claims := NewAccessClaims("erin", "uid-4", []string{"ROLE_USER"},
		time.Minute, "someone-else", time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestHS256LeewayAllowsSkew(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)

	verifier, err := NewVerifierHS256(testSecret, VerifyOptions{Leeway: time.Minute})
	require.NoError(t, err)

	// Expired 10s ago, inside the 1m leeway.
	claims := NewAccessClaims("frank", "uid-5", []string{"ROLE_USER"},
		time.Minute, "", time.Now().Add(-70*time.Second))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.NoError(t, err)
}

func TestHS256ShortSecretRejected(t *testing.T) {
	t.Parallel()

	_, err := NewSignerHS256([]byte("too-short"))
	require.Error(t, err)

	_, err = NewVerifierHS256([]byte("too-short"), VerifyOptions{})
	require.Error(t, err)
}
