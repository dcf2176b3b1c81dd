package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/util"
)

// SessionValidator maps bearer tokens to the email that owns them.
type SessionValidator struct {
	sessionRepo   repository.SessionRepository
	storeFallback bool
	now           func() time.Time
}

// NewSessionValidator creates a validator. With storeFallback set, a store
// outage makes the raw token act as the identity; use only in development.
func NewSessionValidator(sessionRepo repository.SessionRepository, storeFallback bool) *SessionValidator {
	return &SessionValidator{
		sessionRepo:   sessionRepo,
		storeFallback: storeFallback,
		now:           time.Now,
	}
}

// Resolve validates an Authorization header of the form "Bearer <token>".
func (v *SessionValidator) Resolve(ctx context.Context, authorization string) (string, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return "", apperrors.MissingToken()
	}
	return v.ResolveToken(ctx, token)
}

// ResolveToken performs one store lookup and returns the session email.
func (v *SessionValidator) ResolveToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.MissingToken()
	}

	session, err := v.sessionRepo.FindByTokenHash(ctx, util.HashToken(token))
	if err != nil {
		if v.storeFallback {
			log.Warn().Err(err).Msg("session store unavailable, accepting raw token as identity")
			return token, nil
		}
		return "", apperrors.StoreUnavailable(err)
	}
	if session == nil {
		return "", apperrors.InvalidSession()
	}

	if session.ExpiresAt.ExpiredAt(v.now()) {
		return "", apperrors.SessionExpired()
	}

	return session.Email, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(authorization string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
