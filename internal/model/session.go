package model

import (
	"time"
)

// Session binds a bearer token to an email. Only the token hash is stored.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	TokenHash string    `db:"token_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt Timestamp `db:"expires_at" json:"expiresAt"`
}

type CreateSessionParams struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}
