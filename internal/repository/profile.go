package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/foundernet/chat-server-go/internal/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error)
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	List(ctx context.Context, limit int) ([]model.Profile, error)
}

type profileRepo struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO profiles (name, email, age, role, bio, interests, avatar_url, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.Name, params.Email, params.Age, params.Role, params.Bio,
		pq.Array(params.Interests), params.AvatarURL, params.Location)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByEmail returns the earliest profile registered for the email.
func (r *profileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return getOne[model.Profile](ctx, r.db, `
		SELECT * FROM profiles
		WHERE email = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, email)
}

func (r *profileRepo) List(ctx context.Context, limit int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
