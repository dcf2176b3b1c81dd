package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/config"
	apperrors "github.com/foundernet/chat-server-go/internal/errors"
	"github.com/foundernet/chat-server-go/internal/model"
	redisclient "github.com/foundernet/chat-server-go/internal/redis"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/util"
)

// Limiter is a sliding-window limiter keyed by an arbitrary string.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, resetAt time.Time)
}

type AuthConfig struct {
	CodeTTL      time.Duration
	SessionTTL   time.Duration
	DemoMode     bool
	RequestLimit int
	VerifyLimit  int
}

type RequestCodeResult struct {
	Status    model.CodeStatus `json:"status"`
	Message   string           `json:"message"`
	DebugCode string           `json:"debugCode,omitempty"`
}

type VerifyCodeResult struct {
	Token     string         `json:"token"`
	Email     string         `json:"email"`
	Profile   *model.Profile `json:"profile,omitempty"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// AuthService issues and redeems one-time email login codes.
type AuthService struct {
	codeRepo    repository.AuthCodeRepository
	sessionRepo repository.SessionRepository
	profileRepo repository.ProfileRepository
	sender      CodeSender
	limiter     Limiter
	cfg         AuthConfig
	now         func() time.Time
}

// NewAuthService wires the service. A nil limiter disables per-email limits.
func NewAuthService(
	codeRepo repository.AuthCodeRepository,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
	sender CodeSender,
	limiter Limiter,
	cfg AuthConfig,
) *AuthService {
	if sender == nil {
		sender = LogCodeSender{}
	}
	return &AuthService{
		codeRepo:    codeRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
		sender:      sender,
		limiter:     limiter,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *AuthService) RequestCode(ctx context.Context, email string) (*RequestCodeResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}

	if err := s.checkLimit(ctx, redisclient.CodeRequestKey(email), s.cfg.RequestLimit); err != nil {
		return nil, err
	}

	code, err := util.GenerateCode()
	if err != nil {
		return nil, apperrors.Internal("failed to generate code").WithCause(err)
	}

	now := s.now()
	created, err := s.codeRepo.Create(ctx, model.CreateAuthCodeParams{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	})
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create auth code: %w", err))
	}

	log.Info().
		Str("email", util.MaskEmail(email)).
		Time("expiresAt", created.ExpiresAt).
		Msg("login code created")

	result := &RequestCodeResult{
		Status:  model.CodeStatusSent,
		Message: "A login code has been sent to your email",
	}

	if s.cfg.DemoMode {
		result.Message = "Demo mode: use the code below to sign in"
		result.DebugCode = code
		return result, nil
	}

	if err := s.sender.SendCode(ctx, email, code, created.ExpiresAt); err != nil {
		log.Error().Err(err).Str("email", util.MaskEmail(email)).Msg("deliver login code")
	}

	return result, nil
}

func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*VerifyCodeResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if code == "" {
		return nil, apperrors.MissingRequired("code")
	}

	if err := s.checkLimit(ctx, redisclient.CodeVerifyKey(email), s.cfg.VerifyLimit); err != nil {
		return nil, err
	}

	codes, err := s.codeRepo.FindRecentByEmail(ctx, email, config.CodeLookupLimit)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find auth codes: %w", err))
	}

	now := s.now()
	match := findRedeemable(codes, code, now)
	if match == nil {
		return nil, apperrors.InvalidOrExpiredCode()
	}

	claimed, err := s.codeRepo.MarkUsed(ctx, match.ID)
	switch {
	case err != nil:
		log.Error().Err(err).Str("codeId", match.ID).Msg("mark auth code used")
	case !claimed:
		log.Warn().Str("codeId", match.ID).Msg("auth code already redeemed")
		return nil, apperrors.InvalidOrExpiredCode()
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("failed to generate token").WithCause(err)
	}

	expiresAt := now.Add(s.cfg.SessionTTL)
	if _, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		Email:     email,
		TokenHash: util.HashToken(token),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, apperrors.Database(fmt.Errorf("create session: %w", err))
	}

	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Warn().Err(err).Str("email", util.MaskEmail(email)).Msg("profile lookup failed")
		profile = nil
	}

	log.Info().Str("email", util.MaskEmail(email)).Time("expiresAt", expiresAt).Msg("session created")

	return &VerifyCodeResult{
		Token:     token,
		Email:     email,
		Profile:   profile,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) checkLimit(ctx context.Context, key string, limit int) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	allowed, resetAt := s.limiter.CheckLimit(ctx, key, limit, config.CodeLimitWindow)
	if !allowed {
		return apperrors.RateLimitExceeded().WithDetails(map[string]any{
			"resetAt": resetAt.UTC().Format(time.RFC3339),
		})
	}
	return nil
}

// findRedeemable returns the newest unused, unexpired code equal to want.
func findRedeemable(codes []model.AuthCode, want string, now time.Time) *model.AuthCode {
	sorted := append([]model.AuthCode(nil), codes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for i := range sorted {
		c := &sorted[i]
		if c.IsRedeemableAt(now) && util.ConstantTimeEqual(c.Code, want) {
			return c
		}
	}
	return nil
}
