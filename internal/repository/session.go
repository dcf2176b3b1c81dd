package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/foundernet/chat-server-go/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (email, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Email, params.TokenHash, params.CreatedAt, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByTokenHash returns the session regardless of expiry; callers decide.
func (r *sessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	return getOne[model.Session](ctx, r.db, `
		SELECT * FROM sessions WHERE token_hash = $1
	`, tokenHash)
}
