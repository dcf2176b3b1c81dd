package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foundernet/chat-server-go/internal/middleware"
	"github.com/foundernet/chat-server-go/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
	protect        []func(http.Handler) http.Handler
}

// NewMessageHandler creates the room history handler. protect wraps the
// posting route, typically with session and rate limit middleware.
func NewMessageHandler(messageService *service.MessageService, protect ...func(http.Handler) http.Handler) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		protect:        protect,
	}
}

// Routes is mounted under /api/rooms/{roomId}/messages.
func (h *MessageHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.With(h.protect...).Post("/", h.Post)

	return r
}

// POST /api/rooms/{roomId}/messages
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	var req service.PostMessageInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.messageService.PostMessage(r.Context(), roomID, middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": msg.ID})
}

// GET /api/rooms/{roomId}/messages?limit=N
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	messages, err := h.messageService.ListMessages(r.Context(), roomID, ParseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
