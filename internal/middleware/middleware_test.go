package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/httputil"
)

type stubResolver struct {
	identity string
	err      error
	got      string
}

func (s *stubResolver) Resolve(_ context.Context, authorization string) (string, error) {
	s.got = authorization
	return s.identity, s.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSessionMiddleware(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetIdentity(r.Context())))
	})

	t.Run("stores identity in context", func(t *testing.T) {
		resolver := &stubResolver{identity: "a@b.com"}
		h := NewSessionMiddleware(resolver).Handler(echo)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a@b.com", rec.Body.String())
		assert.Equal(t, "Bearer tok", resolver.got)
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"missing token", apperrors.MissingToken(), http.StatusUnauthorized, apperrors.ErrCodeMissingToken},
		{"invalid session", apperrors.InvalidSession(), http.StatusUnauthorized, apperrors.ErrCodeInvalidSession},
		{"expired session", apperrors.SessionExpired(), http.StatusUnauthorized, apperrors.ErrCodeSessionExpired},
		{"store down", apperrors.StoreUnavailable(errors.New("x")), http.StatusServiceUnavailable, apperrors.ErrCodeStoreUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSessionMiddleware(&stubResolver{err: tc.err}).Handler(echo)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestGetIdentity_Empty(t *testing.T) {
	assert.Equal(t, "", GetIdentity(context.Background()))
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := NewRateLimiter()
		for i := 0; i < 5; i++ {
			allowed, remaining, _ := limiter.Check(ctx, "a@b.com", 10)
			assert.True(t, allowed)
			assert.Equal(t, 10-i-1, remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		limiter := NewRateLimiter()
		for i := 0; i < 5; i++ {
			limiter.Check(ctx, "a@b.com", 5)
		}
		allowed, remaining, _ := limiter.Check(ctx, "a@b.com", 5)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("tracks keys separately", func(t *testing.T) {
		limiter := NewRateLimiter()
		for i := 0; i < 5; i++ {
			limiter.Check(ctx, "a", 5)
		}
		allowed, _, _ := limiter.Check(ctx, "b", 5)
		assert.True(t, allowed)
	})

	t.Run("returns reset time in the future", func(t *testing.T) {
		limiter := NewRateLimiter()
		_, _, resetAt := limiter.Check(ctx, "a", 5)
		assert.Greater(t, resetAt, time.Now().Unix())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := NewRateLimitMiddleware(NewRateLimiter(), 2).Handler(ok)

	send := func(identity string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/r1/messages", nil)
		if identity != "" {
			req = req.WithContext(WithIdentity(req.Context(), identity))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("a@b.com").Code)
	rec := send("a@b.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send("a@b.com")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, decodeError(t, rec).Code)

	assert.Equal(t, http.StatusNoContent, send("c@d.com").Code, "other identities unaffected")
}

type denyLimiter struct{}

func (denyLimiter) CheckLimit(context.Context, string, int, time.Duration) (bool, time.Time) {
	return false, time.Now().Add(30 * time.Second)
}

func TestIPRateLimitMiddleware(t *testing.T) {
	h := NewIPRateLimitMiddleware(denyLimiter{}, 10, time.Minute, "auth").
		Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/request-code", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestBodyLimitMiddleware(t *testing.T) {
	h := NewBodyLimitMiddleware(8).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := NewCORSMiddleware(true).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/profiles", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Invite-Code")
	})

	t.Run("security headers on plain requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
