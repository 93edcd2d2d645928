package domain

import "time"

// TokenPair is what login and refresh return: the signed access token plus
// the opaque refresh token, along with the subject's public profile.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	UserID       string
	Username     string
	Email        string
	Roles        []Role
}

// RefreshToken models the stored refresh token record. At most one live
// record exists per user; creating another replaces this one's token value
// and expiry in place.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record's expiry has passed at the given time.
func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
