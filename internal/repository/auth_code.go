package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/foundernet/chat-server-go/internal/model"
)

// AuthCodeRepository handles one-time login code data operations
type AuthCodeRepository interface {
	Create(ctx context.Context, params model.CreateAuthCodeParams) (*model.AuthCode, error)
	FindRecentByEmail(ctx context.Context, email string, limit int) ([]model.AuthCode, error)
	// MarkUsed flips the used flag only if it is still unset and reports
	// whether this call performed the flip.
	MarkUsed(ctx context.Context, id string) (bool, error)
}

type authCodeRepo struct {
	db *sqlx.DB
}

// NewAuthCodeRepository creates a new auth code repository
func NewAuthCodeRepository(db *sqlx.DB) AuthCodeRepository {
	return &authCodeRepo{db: db}
}

func (r *authCodeRepo) Create(ctx context.Context, params model.CreateAuthCodeParams) (*model.AuthCode, error) {
	var code model.AuthCode
	err := r.db.GetContext(ctx, &code, `
		INSERT INTO auth_codes (email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Email, params.Code, params.CreatedAt, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *authCodeRepo) FindRecentByEmail(ctx context.Context, email string, limit int) ([]model.AuthCode, error) {
	var codes []model.AuthCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM auth_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *authCodeRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE auth_codes
		SET used = TRUE, used_at = NOW()
		WHERE id = $1 AND used = FALSE
	`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
