package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foundernet/chat-server-go/internal/model"
)

// MemoryStore keeps every table in process memory. It backs local
// development when no DATABASE_URL is configured and is safe for
// concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	codes    []model.AuthCode
	sessions map[string]model.Session
	messages []model.Message
	profiles []model.Profile
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) AuthCodes() AuthCodeRepository { return memoryAuthCodes{s} }
func (s *MemoryStore) Sessions() SessionRepository   { return memorySessions{s} }
func (s *MemoryStore) Messages() MessageRepository   { return memoryMessages{s} }
func (s *MemoryStore) Profiles() ProfileRepository   { return memoryProfiles{s} }

type memoryAuthCodes struct{ s *MemoryStore }

func (m memoryAuthCodes) Create(_ context.Context, params model.CreateAuthCodeParams) (*model.AuthCode, error) {
	code := model.AuthCode{
		ID:        uuid.NewString(),
		Email:     params.Email,
		Code:      params.Code,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}

	m.s.mu.Lock()
	m.s.codes = append(m.s.codes, code)
	m.s.mu.Unlock()

	return &code, nil
}

func (m memoryAuthCodes) FindRecentByEmail(_ context.Context, email string, limit int) ([]model.AuthCode, error) {
	m.s.mu.RLock()
	var matches []model.AuthCode
	for _, c := range m.s.codes {
		if c.Email == email {
			matches = append(matches, c)
		}
	}
	m.s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m memoryAuthCodes) MarkUsed(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for i := range m.s.codes {
		if m.s.codes[i].ID != id {
			continue
		}
		if m.s.codes[i].Used {
			return false, nil
		}
		usedAt := m.s.now()
		m.s.codes[i].Used = true
		m.s.codes[i].UsedAt = &usedAt
		return true, nil
	}
	return false, nil
}

type memorySessions struct{ s *MemoryStore }

func (m memorySessions) Create(_ context.Context, params model.CreateSessionParams) (*model.Session, error) {
	session := model.Session{
		ID:        uuid.NewString(),
		Email:     params.Email,
		TokenHash: params.TokenHash,
		CreatedAt: params.CreatedAt,
		ExpiresAt: model.NewTimestamp(params.ExpiresAt),
	}

	m.s.mu.Lock()
	m.s.sessions[params.TokenHash] = session
	m.s.mu.Unlock()

	return &session, nil
}

func (m memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*model.Session, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	session, ok := m.s.sessions[tokenHash]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

type memoryMessages struct{ s *MemoryStore }

func (m memoryMessages) Create(_ context.Context, params model.CreateMessageParams) (*model.Message, error) {
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	msg := model.Message{
		ID:          id,
		RoomID:      params.RoomID,
		Content:     params.Content,
		SenderEmail: params.SenderEmail,
		SenderID:    params.SenderID,
		CreatedAt:   model.NewTimestamp(params.CreatedAt),
		UpdatedAt:   model.NewTimestamp(params.CreatedAt),
	}

	m.s.mu.Lock()
	m.s.messages = append(m.s.messages, msg)
	m.s.mu.Unlock()

	return &msg, nil
}

func (m memoryMessages) FindByRoomID(_ context.Context, roomID string, limit int) ([]model.Message, error) {
	m.s.mu.RLock()
	var matches []model.Message
	// Newest insertions first so equal timestamps still list newest first.
	for i := len(m.s.messages) - 1; i >= 0; i-- {
		if msg := m.s.messages[i]; msg.RoomID == roomID {
			matches = append(matches, msg)
		}
	}
	m.s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[j].CreatedAt.Before(matches[i].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type memoryProfiles struct{ s *MemoryStore }

func (m memoryProfiles) Create(_ context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	profile := model.Profile{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Email:     params.Email,
		Age:       params.Age,
		Role:      params.Role,
		Bio:       params.Bio,
		Interests: append([]string(nil), params.Interests...),
		AvatarURL: params.AvatarURL,
		Location:  params.Location,
		CreatedAt: m.s.now(),
	}
	if profile.Interests == nil {
		profile.Interests = []string{}
	}

	m.s.mu.Lock()
	m.s.profiles = append(m.s.profiles, profile)
	m.s.mu.Unlock()

	return &profile, nil
}

func (m memoryProfiles) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, p := range m.s.profiles {
		if p.Email == email {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m memoryProfiles) List(_ context.Context, limit int) ([]model.Profile, error) {
	m.s.mu.RLock()
	profiles := make([]model.Profile, 0, len(m.s.profiles))
	for i := len(m.s.profiles) - 1; i >= 0; i-- {
		profiles = append(profiles, m.s.profiles[i])
	}
	m.s.mu.RUnlock()

	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}
