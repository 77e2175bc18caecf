package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/repository"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

// AvatarEnqueuer schedules the avatar mirror for a freshly linked account.
type AvatarEnqueuer interface {
	EnqueueAvatarMirror(ctx context.Context, accountID string) error
}

type AttachmentService interface {
	Attach(ctx context.Context, profileID string, identity models.ExternalIdentity) (*transfer.AttachResult, error)
	List(ctx context.Context, profileID string) ([]*models.SocialAccount, error)
}

type attachmentService struct {
	profiles repository.ProfileRepository
	accounts repository.SocialAccountRepository
	avatars  AvatarEnqueuer
	now      func() time.Time
}

// NewAttachmentService builds the attachment gate. avatars may be nil.
func NewAttachmentService(profiles repository.ProfileRepository, accounts repository.SocialAccountRepository, avatars AvatarEnqueuer) AttachmentService {
	return &attachmentService{
		profiles: profiles,
		accounts: accounts,
		avatars:  avatars,
		now:      time.Now,
	}
}

func (s *attachmentService) Attach(ctx context.Context, profileID string, identity models.ExternalIdentity) (*transfer.AttachResult, error) {
	if err := s.checkProfile(ctx, profileID); err != nil {
		return nil, err
	}

	if identity.PlatformUserID == "" {
		return nil, fmt.Errorf("%w: identity has no platform user id", ErrIdentityLookupFailed)
	}

	existing, err := s.accounts.GetByPlatformID(ctx, identity.Platform, identity.PlatformUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.classifyExisting(existing, profileID)
	}

	account := models.NewSocialAccount(profileID, identity, s.now().UTC())
	created, err := s.accounts.Create(ctx, account)
	switch {
	case errors.Is(err, repository.ErrDuplicateAccount):
		// Lost a race with a concurrent attach of the same identity.
		existing, err := s.accounts.GetByPlatformID(ctx, identity.Platform, identity.PlatformUserID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("attach %s/%s: %w", identity.Platform, identity.PlatformUserID, ErrDuplicateAccount)
		}
		return s.classifyExisting(existing, profileID)
	case errors.Is(err, repository.ErrProfileNotFound):
		return nil, ErrProfileNotFound
	case err != nil:
		return nil, err
	}

	slog.Info("social account linked",
		"platform", created.Platform,
		"profile_id", profileID,
		"account_id", created.ID,
	)

	if created.AvatarURL != "" && s.avatars != nil {
		if err := s.avatars.EnqueueAvatarMirror(ctx, created.ID); err != nil {
			slog.Warn("failed to enqueue avatar mirror", "account_id", created.ID, "error", err)
		}
	}

	return &transfer.AttachResult{Account: created}, nil
}

func (s *attachmentService) classifyExisting(existing *models.SocialAccount, profileID string) (*transfer.AttachResult, error) {
	if existing.ProfileID == profileID {
		return &transfer.AttachResult{Account: existing, AlreadyLinked: true}, nil
	}

	slog.Info("account already linked to another profile",
		"platform", existing.Platform,
		"profile_id", profileID,
	)
	return nil, ErrAccountLinkedElsewhere
}

func (s *attachmentService) List(ctx context.Context, profileID string) ([]*models.SocialAccount, error) {
	if err := s.checkProfile(ctx, profileID); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByProfileID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return accounts, nil
}

func (s *attachmentService) checkProfile(ctx context.Context, profileID string) error {
	if !models.ValidProfileID(profileID) {
		return ErrInvalidProfile
	}

	exists, err := s.profiles.Exists(ctx, profileID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProfileNotFound
	}
	return nil
}
