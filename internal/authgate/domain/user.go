package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC encoded
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
