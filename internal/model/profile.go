package model

import (
	"time"

	"github.com/lib/pq"
)

type Profile struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Age       int            `db:"age" json:"age"`
	Role      ProfileRole    `db:"role" json:"role"`
	Bio       string         `db:"bio" json:"bio"`
	Interests pq.StringArray `db:"interests" json:"interests"`
	AvatarURL *string        `db:"avatar_url" json:"avatar_url,omitempty"`
	Location  *string        `db:"location" json:"location,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type CreateProfileParams struct {
	Name      string
	Email     string
	Age       int
	Role      ProfileRole
	Bio       string
	Interests []string
	AvatarURL *string
	Location  *string
}
