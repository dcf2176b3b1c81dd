package model

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID          string    `db:"id" json:"id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	Content     string    `db:"content" json:"content"`
	SenderEmail *string   `db:"sender_email" json:"sender_email,omitempty"`
	SenderID    *string   `db:"sender_id" json:"sender_id,omitempty"`
	CreatedAt   Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp `db:"updated_at" json:"updated_at"`
}

// BroadcastPayload returns the JSON frame pushed to room subscribers.
func (m *Message) BroadcastPayload() json.RawMessage {
	data, _ := json.Marshal(m)
	return data
}

type CreateMessageParams struct {
	ID          string
	RoomID      string
	Content     string
	SenderEmail *string
	SenderID    *string
	CreatedAt   time.Time
}

// InboundFrame is a chat message received over a streaming connection.
type InboundFrame struct {
	Content  string  `json:"content"`
	SenderID *string `json:"sender_id,omitempty"`
}
