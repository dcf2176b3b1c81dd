package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/audit"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/middleware"
	"github.com/foundernet/chat-server-go/internal/model"
	"github.com/foundernet/chat-server-go/internal/service"
	"github.com/foundernet/chat-server-go/internal/util"
)

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type meResponse struct {
	Email   string         `json:"email"`
	Profile *model.Profile `json:"profile,omitempty"`
}

type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/request-code", h.RequestCode)
	r.Post("/verify", h.VerifyCode)

	return r
}

// POST /api/auth/request-code
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.RequestCode(r.Context(), req.Email)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeRateLimitExceeded) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed, Email: req.Email,
				Details: map[string]any{"scope": "request-code"}})
		} else {
			log.Error().Err(err).Msg("failed to request login code")
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventCodeRequest, Email: req.Email})
	writeJSON(w, http.StatusOK, result)
}

// POST /api/auth/verify
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventCodeVerifyFailure,
			Email:   req.Email,
			Details: map[string]any{"reason": string(apperrors.GetCode(err))},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventCodeVerifySuccess, Email: result.Email})
	writeJSON(w, http.StatusOK, result)
}

// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == "" {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	profile, err := h.profileService.FindByEmail(r.Context(), identity)
	if err != nil {
		log.Warn().Err(err).Msg("profile lookup for /api/me failed")
		profile = nil
	}

	writeJSON(w, http.StatusOK, meResponse{Email: identity, Profile: profile})
}
