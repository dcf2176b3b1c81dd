package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foundernet/chat-server-go/internal/audit"
	"github.com/foundernet/chat-server-go/internal/service"
)

const InviteCodeHeader = "X-Invite-Code"

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	return r
}

// POST /api/profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	invite := r.Header.Get(InviteCodeHeader)
	if err := h.profileService.CheckInvite(invite); err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventInviteRejected})
		writeError(w, err)
		return
	}

	var req service.CreateProfileInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profileService.CreateProfile(r.Context(), invite, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": profile.ID})
}

// GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.ListProfiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}
