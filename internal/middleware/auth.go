package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/audit"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// GetIdentity returns the email resolved for the request, or "".
func GetIdentity(ctx context.Context) string {
	if identity, ok := ctx.Value(IdentityContextKey).(string); ok {
		return identity
	}
	return ""
}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// SessionResolver resolves an Authorization header to an identity.
type SessionResolver interface {
	Resolve(ctx context.Context, authorization string) (string, error)
}

type SessionMiddleware struct {
	resolver SessionResolver
}

func NewSessionMiddleware(resolver SessionResolver) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver}
}

// Handler rejects requests without a valid bearer session.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			code := apperrors.GetCode(err)
			if code == apperrors.ErrCodeStoreUnavailable {
				log.Error().Err(err).Msg("session middleware: store unavailable")
			} else {
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventSessionRejected,
					Details: map[string]any{"reason": string(code), "path": r.URL.Path},
				})
			}
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
