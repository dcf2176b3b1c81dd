package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foundernet/chat-server-go/internal/config"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
)

func validProfileInput() CreateProfileInput {
	return CreateProfileInput{
		Name:      "Ada",
		Email:     "Ada@Example.com",
		Age:       19,
		Role:      "founder",
		Bio:       "building",
		Interests: []string{"ai"},
	}
}

func TestProfileService_CreateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("open registration", func(t *testing.T) {
		repo := new(mockProfileRepo)
		svc := NewProfileService(repo, "")

		repo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateProfileParams) bool {
			return p.Email == "ada@example.com" && p.Role == model.ProfileRoleFounder
		})).Return(&model.Profile{ID: "p1"}, nil)

		profile, err := svc.CreateProfile(ctx, "", validProfileInput())
		require.NoError(t, err)
		assert.Equal(t, "p1", profile.ID)
	})

	t.Run("invite gate", func(t *testing.T) {
		repo := new(mockProfileRepo)
		svc := NewProfileService(repo, "secret")
		assert.True(t, svc.InviteRequired())

		_, err := svc.CreateProfile(ctx, "", validProfileInput())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInviteCode))
		_, err = svc.CreateProfile(ctx, "wrong", validProfileInput())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInviteCode))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

		repo.On("Create", mock.Anything, mock.Anything).Return(&model.Profile{ID: "p1"}, nil)
		_, err = svc.CreateProfile(ctx, "secret", validProfileInput())
		assert.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewProfileService(new(mockProfileRepo), "")

		in := validProfileInput()
		in.Age = 30
		in.Role = "mentor"
		_, err := svc.CreateProfile(ctx, "", in)
		require.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

		appErr, _ := apperrors.AsAppError(err)
		details := appErr.Details.(map[string]any)
		assert.Contains(t, details, "age")
		assert.Contains(t, details, "role")
	})
}

func TestProfileService_ListProfiles(t *testing.T) {
	repo := new(mockProfileRepo)
	svc := NewProfileService(repo, "")
	repo.On("List", mock.Anything, config.ProfileListLimit).Return(nil, errors.New("db down")).Once()
	repo.On("List", mock.Anything, config.ProfileListLimit).Return([]model.Profile(nil), nil).Once()

	_, err := svc.ListProfiles(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabase))

	profiles, err := svc.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, profiles)
}
