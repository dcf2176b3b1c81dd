package model

import (
	"time"
)

// AuthCode is a one-time login code issued to an email address. Codes are
// kept after use as an audit trail.
type AuthCode struct {
	ID        string     `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Code      string     `db:"code" json:"-"`
	Used      bool       `db:"used" json:"used"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
}

type CreateAuthCodeParams struct {
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsRedeemableAt checks the code is unused and not yet expired.
func (c *AuthCode) IsRedeemableAt(now time.Time) bool {
	return !c.Used && c.ExpiresAt.After(now)
}
