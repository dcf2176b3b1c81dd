package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
	"github.com/foundernet/chat-server-go/internal/util"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER  abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			token, ok := BearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestSessionValidator_Resolve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	hash := util.HashToken("tok")

	newValidator := func(fallback bool) (*SessionValidator, *mockSessionRepo) {
		repo := new(mockSessionRepo)
		v := NewSessionValidator(repo, fallback)
		v.now = func() time.Time { return now }
		return v, repo
	}

	t.Run("valid session resolves to email", func(t *testing.T) {
		v, repo := newValidator(false)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(&model.Session{
			Email:     "a@b.com",
			ExpiresAt: model.NewTimestamp(now.Add(time.Hour)),
		}, nil)

		email, err := v.Resolve(ctx, "Bearer tok")
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", email)
		repo.AssertNumberOfCalls(t, "FindByTokenHash", 1)
	})

	t.Run("missing header", func(t *testing.T) {
		v, repo := newValidator(false)
		_, err := v.Resolve(ctx, "")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingToken))
		repo.AssertNotCalled(t, "FindByTokenHash", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		v, repo := newValidator(false)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(nil, nil)

		_, err := v.Resolve(ctx, "Bearer tok")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidSession))
	})

	t.Run("expired session", func(t *testing.T) {
		v, repo := newValidator(false)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(&model.Session{
			Email:     "a@b.com",
			ExpiresAt: model.NewTimestamp(now.Add(-time.Second)),
		}, nil)

		_, err := v.Resolve(ctx, "Bearer tok")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionExpired))
	})

	t.Run("unparsable expiry counts as expired", func(t *testing.T) {
		v, repo := newValidator(false)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(&model.Session{
			Email:     "a@b.com",
			ExpiresAt: model.ParseTimestamp("someday"),
		}, nil)

		_, err := v.Resolve(ctx, "Bearer tok")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionExpired))
	})

	t.Run("store outage without fallback", func(t *testing.T) {
		v, repo := newValidator(false)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(nil, errors.New("conn refused"))

		_, err := v.Resolve(ctx, "Bearer tok")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable))
	})

	t.Run("store outage with fallback uses raw token", func(t *testing.T) {
		v, repo := newValidator(true)
		repo.On("FindByTokenHash", mock.Anything, hash).Return(nil, errors.New("conn refused"))

		identity, err := v.Resolve(ctx, "Bearer tok")
		require.NoError(t, err)
		assert.Equal(t, "tok", identity)
	})
}
