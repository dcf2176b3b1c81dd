package service

import (
	"context"
	"fmt"

	"github.com/foundernet/chat-server-go/internal/config"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/util"
)

type CreateProfileInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Email     string   `json:"email" validate:"required,email"`
	Age       int      `json:"age" validate:"min=15,max=25"`
	Role      string   `json:"role" validate:"required,oneof=founder investor"`
	Bio       string   `json:"bio" validate:"max=1000"`
	Interests []string `json:"interests" validate:"max=20,dive,max=50"`
	AvatarURL *string  `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,max=100"`
}

// ProfileService registers community members behind an optional invite code.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	inviteCode  string
}

func NewProfileService(profileRepo repository.ProfileRepository, inviteCode string) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		inviteCode:  inviteCode,
	}
}

// InviteRequired reports whether profile creation is gated.
func (s *ProfileService) InviteRequired() bool {
	return s.inviteCode != ""
}

func (s *ProfileService) CheckInvite(presented string) error {
	if !s.InviteRequired() {
		return nil
	}
	if presented == "" || !util.ConstantTimeEqual(presented, s.inviteCode) {
		return apperrors.InvalidInviteCode()
	}
	return nil
}

func (s *ProfileService) CreateProfile(ctx context.Context, inviteCode string, in CreateProfileInput) (*model.Profile, error) {
	if err := s.CheckInvite(inviteCode); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Create(ctx, model.CreateProfileParams{
		Name:      in.Name,
		Email:     util.NormalizeEmail(in.Email),
		Age:       in.Age,
		Role:      model.ProfileRole(in.Role),
		Bio:       in.Bio,
		Interests: in.Interests,
		AvatarURL: in.AvatarURL,
		Location:  in.Location,
	})
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create profile: %w", err))
	}
	return profile, nil
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	profiles, err := s.profileRepo.List(ctx, config.ProfileListLimit)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list profiles: %w", err))
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	return profiles, nil
}

// FindByEmail returns nil without error when no profile exists.
func (s *ProfileService) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find profile: %w", err))
	}
	return profile, nil
}
