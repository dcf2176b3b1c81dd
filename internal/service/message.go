package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/config"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/util"
)

// Broadcaster pushes a payload to every live subscriber of a room and
// reports how many accepted it.
type Broadcaster interface {
	Broadcast(roomID string, payload []byte) int
}

type PostMessageInput struct {
	Content     string  `json:"content" validate:"required,max=4000"`
	SenderID    *string `json:"sender_id,omitempty" validate:"omitempty,max=200"`
	SenderEmail *string `json:"sender_email,omitempty" validate:"omitempty,email"`
}

type MessageService struct {
	messageRepo repository.MessageRepository
	broadcaster Broadcaster
	now         func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, broadcaster Broadcaster) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// PostMessage persists a message for an authenticated sender and then
// broadcasts it. Only persistence failures are returned.
func (s *MessageService) PostMessage(ctx context.Context, roomID, identity string, in PostMessageInput) (*model.Message, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperrors.MissingRequired("content")
	}

	senderEmail := in.SenderEmail
	if senderEmail == nil || *senderEmail == "" {
		senderEmail = optional(identity)
	}

	msg, err := s.messageRepo.Create(ctx, s.newParams(roomID, content, senderEmail, in.SenderID))
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create message: %w", err))
	}

	s.broadcast(msg)
	return msg, nil
}

// IngestFrame handles a frame read from a streaming connection. Invalid
// frames are rejected; persistence is best-effort and the message is
// broadcast either way.
func (s *MessageService) IngestFrame(ctx context.Context, roomID, identity string, frame model.InboundFrame) (*model.Message, error) {
	content := strings.TrimSpace(frame.Content)
	if content == "" {
		return nil, apperrors.MissingRequired("content")
	}
	if len(content) > config.MaxMessageLength {
		return nil, apperrors.InvalidInput("content", "too long")
	}

	params := s.newParams(roomID, content, optional(identity), frame.SenderID)

	msg, err := s.messageRepo.Create(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("roomId", roomID).Str("messageId", params.ID).Msg("persist streamed message")
		msg = &model.Message{
			ID:          params.ID,
			RoomID:      params.RoomID,
			Content:     params.Content,
			SenderEmail: params.SenderEmail,
			SenderID:    params.SenderID,
			CreatedAt:   model.NewTimestamp(params.CreatedAt),
			UpdatedAt:   model.NewTimestamp(params.CreatedAt),
		}
	}

	s.broadcast(msg)
	return msg, nil
}

// ListMessages returns the newest messages of a room first. Limits outside
// (0, MaxMessageLimit] fall back to the default or are clamped.
func (s *MessageService) ListMessages(ctx context.Context, roomID string, limit int) ([]model.Message, error) {
	limit = ClampMessageLimit(limit)

	messages, err := s.messageRepo.FindByRoomID(ctx, roomID, limit)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list messages: %w", err))
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[j].CreatedAt.Before(messages[i].CreatedAt)
	})
	if len(messages) > limit {
		messages = messages[:limit]
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

func ClampMessageLimit(limit int) int {
	switch {
	case limit <= 0:
		return config.DefaultMessageLimit
	case limit > config.MaxMessageLimit:
		return config.MaxMessageLimit
	default:
		return limit
	}
}

func (s *MessageService) newParams(roomID, content string, senderEmail, senderID *string) model.CreateMessageParams {
	return model.CreateMessageParams{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Content:     content,
		SenderEmail: senderEmail,
		SenderID:    senderID,
		CreatedAt:   s.now().UTC(),
	}
}

func (s *MessageService) broadcast(msg *model.Message) {
	if s.broadcaster == nil {
		return
	}
	delivered := s.broadcaster.Broadcast(msg.RoomID, msg.BroadcastPayload())
	log.Debug().
		Str("roomId", msg.RoomID).
		Str("messageId", msg.ID).
		Int("delivered", delivered).
		Msg("message broadcast")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
