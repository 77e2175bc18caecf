package repository

import (
	"context"
	"sort"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/social-link-api/internal/models"
)

// MemoryAccountStore keeps profiles and linked accounts in process memory.
// It implements ProfileRepository and SocialAccountRepository.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	accounts map[string]models.SocialAccount
	// platform + "\x00" + platform_id -> account id
	byPlatformID map[string]string
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		profiles:     make(map[string]models.Profile),
		accounts:     make(map[string]models.SocialAccount),
		byPlatformID: make(map[string]string),
	}
}

func platformKey(platform models.Platform, platformID string) string {
	return string(platform) + "\x00" + platformID
}

func (s *MemoryAccountStore) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		s.profiles[profile.ID] = *profile
	}
	return nil
}

func (s *MemoryAccountStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryAccountStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profiles[id]
	return ok, nil
}

// Accounts returns the SocialAccountRepository view of the store.
func (s *MemoryAccountStore) Accounts() SocialAccountRepository {
	return memoryAccounts{s}
}

type memoryAccounts struct {
	s *MemoryAccountStore
}

func (m memoryAccounts) Create(_ context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[sa.ProfileID]; !ok {
		return nil, ErrProfileNotFound
	}
	key := platformKey(sa.Platform, sa.PlatformID)
	if _, ok := s.byPlatformID[key]; ok {
		return nil, ErrDuplicateAccount
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	stored := *sa
	stored.ID = id
	s.accounts[id] = stored
	s.byPlatformID[key] = id

	out := stored
	return &out, nil
}

func (m memoryAccounts) GetByID(_ context.Context, id string) (*models.SocialAccount, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	sa, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &sa, nil
}

func (m memoryAccounts) GetByPlatformID(_ context.Context, platform models.Platform, platformID string) (*models.SocialAccount, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPlatformID[platformKey(platform, platformID)]
	if !ok {
		return nil, nil
	}
	sa := s.accounts[id]
	return &sa, nil
}

func (m memoryAccounts) ListByProfileID(_ context.Context, profileID string) ([]*models.SocialAccount, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*models.SocialAccount
	for _, sa := range s.accounts {
		if sa.ProfileID == profileID {
			sa := sa
			accounts = append(accounts, &sa)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (m memoryAccounts) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	sa, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	sa.AvatarURL = avatarURL
	s.accounts[id] = sa
	return nil
}
