package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/audit"
	"github.com/foundernet/chat-server-go/internal/config"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
	"github.com/foundernet/chat-server-go/internal/realtime"
	"github.com/foundernet/chat-server-go/internal/service"
)

// Close codes sent when a stream is refused before joining.
const (
	StatusInvalidSession   websocket.StatusCode = 4401
	StatusStoreUnavailable websocket.StatusCode = websocket.StatusInternalError
)

// StreamHandler serves GET /ws/rooms/{roomId}?token=...
type StreamHandler struct {
	registry         *realtime.Registry
	messageService   *service.MessageService
	sessionValidator *service.SessionValidator
}

func NewStreamHandler(
	registry *realtime.Registry,
	messageService *service.MessageService,
	sessionValidator *service.SessionValidator,
) *StreamHandler {
	return &StreamHandler{
		registry:         registry,
		messageService:   messageService,
		sessionValidator: sessionValidator,
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		writeError(w, apperrors.MissingRequired("roomId"))
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn().Err(err).Str("roomId", roomID).Msg("websocket accept failed")
		return
	}
	conn.SetReadLimit(config.StreamMaxFrameSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var identity string
	if token := r.URL.Query().Get("token"); token != "" {
		identity, err = h.sessionValidator.ResolveToken(ctx, token)
		if err != nil {
			h.reject(r, conn, roomID, err)
			return
		}
	}

	client := realtime.NewClient(roomID, identity, conn)
	h.registry.Join(roomID, client)
	defer h.registry.Leave(roomID, client)
	defer client.Close(websocket.StatusNormalClosure, "")

	go client.WritePump(ctx)

	h.readLoop(ctx, conn, client)
}

func (h *StreamHandler) reject(r *http.Request, conn *websocket.Conn, roomID string, err error) {
	code, reason := StatusInvalidSession, "invalid session"
	if apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable) {
		code, reason = StatusStoreUnavailable, "session store unavailable"
		log.Error().Err(err).Str("roomId", roomID).Msg("stream join: session store unavailable")
	} else {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventStreamRejected,
			RoomID:  roomID,
			Details: map[string]any{"reason": string(apperrors.GetCode(err))},
		})
	}
	conn.Close(code, reason)
}

func (h *StreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *realtime.Client) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(apperrors.TransportFailure(err)).Str("clientId", client.ID).Msg("stream read ended")
			}
			return
		}

		if typ != websocket.MessageText {
			log.Debug().Str("clientId", client.ID).Msg("ignoring non-text frame")
			continue
		}

		var frame model.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Str("roomId", client.RoomID).Msg("ignoring undecodable frame")
			continue
		}

		if _, err := h.messageService.IngestFrame(ctx, client.RoomID, client.Identity, frame); err != nil {
			log.Warn().Err(err).Str("roomId", client.RoomID).Msg("ignoring invalid frame")
		}
	}
}
