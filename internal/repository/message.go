package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/foundernet/chat-server-go/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	FindByRoomID(ctx context.Context, roomID string, limit int) ([]model.Message, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (id, room_id, content, sender_email, sender_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING *
	`, params.ID, params.RoomID, params.Content, params.SenderEmail, params.SenderID, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) FindByRoomID(ctx context.Context, roomID string, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC NULLS LAST
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	return messages, nil
}
