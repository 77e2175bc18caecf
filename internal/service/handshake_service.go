package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	config "github.com/maheshrc27/social-link-api/configs"
	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/provider"
	"github.com/maheshrc27/social-link-api/internal/repository"
	"github.com/maheshrc27/social-link-api/internal/transfer"
	"github.com/maheshrc27/social-link-api/pkg/utils"
)

// maxStateAttempts bounds retries on a state token collision.
const maxStateAttempts = 3

type ProviderRegistry interface {
	Lookup(name string) (provider.Provider, error)
}

type HandshakeService interface {
	Initiate(ctx context.Context, profileID, platform string) (*transfer.InitiateResult, error)
	Complete(ctx context.Context, in transfer.CompleteInput) (*models.VerifiedIdentity, error)
	Abort(ctx context.Context, stateToken string) error
}

type HandshakeOption func(*handshakeService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) HandshakeOption {
	return func(s *handshakeService) {
		s.now = now
	}
}

// WithStateTokenSource replaces the state token generator.
func WithStateTokenSource(fn func() (string, error)) HandshakeOption {
	return func(s *handshakeService) {
		s.newStateToken = fn
	}
}

type handshakeService struct {
	cfg           config.Config
	registry      ProviderRegistry
	store         repository.HandshakeRepository
	now           func() time.Time
	newStateToken func() (string, error)
}

func NewHandshakeService(cfg config.Config, registry ProviderRegistry, store repository.HandshakeRepository, opts ...HandshakeOption) HandshakeService {
	s := &handshakeService{
		cfg:           cfg,
		registry:      registry,
		store:         store,
		now:           time.Now,
		newStateToken: utils.GenerateStateToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *handshakeService) Initiate(ctx context.Context, profileID, platform string) (*transfer.InitiateResult, error) {
	p, err := s.registry.Lookup(platform)
	if err != nil {
		return nil, fmt.Errorf("initiate %q: %w", platform, ErrUnknownProvider)
	}

	if !models.ValidProfileID(profileID) {
		return nil, ErrInvalidProfile
	}

	desc := p.Descriptor()

	var verifier string
	if desc.RequiresProof {
		verifier = oauth2.GenerateVerifier()
	}

	now := s.now()
	rec := &models.HandshakeRecord{
		Platform:      desc.Platform,
		ProfileID:     profileID,
		ProofVerifier: verifier,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.HandshakeTTL),
	}

	if err := s.storeWithFreshToken(ctx, rec); err != nil {
		return nil, err
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	slog.Info("handshake initiated",
		"platform", desc.Platform,
		"profile_id", profileID,
		"state", statePrefix(rec.StateToken),
	)

	return &transfer.InitiateResult{
		AuthorizationURL: p.AuthCodeURL(rec.StateToken, opts...),
		StateToken:       rec.StateToken,
		ProofVerifier:    verifier,
		ExpiresAt:        rec.ExpiresAt,
	}, nil
}

func (s *handshakeService) storeWithFreshToken(ctx context.Context, rec *models.HandshakeRecord) error {
	for attempt := 0; attempt < maxStateAttempts; attempt++ {
		token, err := s.newStateToken()
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		rec.StateToken = token

		err = s.store.Create(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrHandshakeExists) {
			return err
		}
		slog.Warn("state token collision", "attempt", attempt+1)
	}
	return fmt.Errorf("no unique state token after %d attempts", maxStateAttempts)
}

func (s *handshakeService) Complete(ctx context.Context, in transfer.CompleteInput) (*models.VerifiedIdentity, error) {
	rec, err := s.claim(ctx, in.StateToken)
	if err != nil {
		return nil, err
	}

	// The record is burnt from here on, whatever happens next.
	if in.Platform != "" {
		named, ok := models.ParsePlatform(in.Platform)
		if !ok || named != rec.Platform {
			slog.Info("callback provider does not match handshake",
				"callback_platform", in.Platform,
				"platform", rec.Platform,
				"state", statePrefix(in.StateToken),
			)
			return nil, ErrStateNotFound
		}
	}

	p, err := s.registry.Lookup(string(rec.Platform))
	if err != nil {
		return nil, fmt.Errorf("complete %q: %w", rec.Platform, ErrUnknownProvider)
	}

	if in.AuthorizationArtifact == "" {
		return nil, newProviderError(ErrExchangeFailed, rec.Platform, errors.New("missing authorization artifact"))
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	token, err := p.Exchange(exchangeCtx, in.AuthorizationArtifact, rec.ProofVerifier)
	cancel()
	if err != nil {
		pe := newProviderError(ErrExchangeFailed, rec.Platform, err)
		slog.Info(pe.Error(), "payload", pe.Payload)
		return nil, pe
	}

	identityCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	identity, err := p.FetchIdentity(identityCtx, token)
	cancel()
	if err != nil {
		pe := newProviderError(ErrIdentityLookupFailed, rec.Platform, err)
		slog.Info(pe.Error(), "payload", pe.Payload)
		return nil, pe
	}
	identity.Platform = rec.Platform

	slog.Info("handshake completed",
		"platform", rec.Platform,
		"profile_id", rec.ProfileID,
		"platform_user_id", identity.PlatformUserID,
	)

	return &models.VerifiedIdentity{
		ProfileID: rec.ProfileID,
		Identity:  *identity,
	}, nil
}

// Abort burns the handshake after the provider reported a denied or failed
// authorization.
func (s *handshakeService) Abort(ctx context.Context, stateToken string) error {
	rec, err := s.claim(ctx, stateToken)
	if err != nil {
		return err
	}

	slog.Info("handshake aborted", "platform", rec.Platform, "profile_id", rec.ProfileID)
	return nil
}

func (s *handshakeService) claim(ctx context.Context, stateToken string) (*models.HandshakeRecord, error) {
	if stateToken == "" {
		return nil, ErrStateNotFound
	}

	rec, err := s.store.Claim(ctx, stateToken, s.now())
	switch {
	case errors.Is(err, repository.ErrHandshakeNotFound):
		return nil, ErrStateNotFound
	case errors.Is(err, repository.ErrHandshakeConsumed):
		slog.Info("handshake replay rejected", "state", statePrefix(stateToken))
		return nil, ErrStateAlreadyConsumed
	case err != nil:
		return nil, err
	}
	return rec, nil
}

// statePrefix keeps enough of a state token to correlate log lines.
func statePrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
