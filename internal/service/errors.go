package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/provider"
	"github.com/maheshrc27/social-link-api/internal/repository"
)

var (
	ErrUnknownProvider        = provider.ErrUnknownProvider
	ErrInvalidProfile         = errors.New("invalid profile id")
	ErrStateNotFound          = errors.New("handshake state not found or expired")
	ErrStateAlreadyConsumed   = errors.New("handshake state already consumed")
	ErrExchangeFailed         = errors.New("authorization exchange failed")
	ErrIdentityLookupFailed   = errors.New("identity lookup failed")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrDuplicateAccount       = repository.ErrDuplicateAccount
	ErrAccountLinkedElsewhere = errors.New("account is linked to another profile")
)

// ProviderError is a failed exchange or identity lookup. It matches its
// Kind with errors.Is and keeps the upstream diagnostics for logging.
type ProviderError struct {
	Kind       error
	Platform   models.Platform
	StatusCode int
	Payload    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %s: status %d: %v", e.Kind, e.Platform, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Platform, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newProviderError(kind error, platform models.Platform, err error) *ProviderError {
	pe := &ProviderError{Kind: kind, Platform: platform, Err: err}

	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		pe.StatusCode = ue.StatusCode
		pe.Payload = ue.Payload
	}
	return pe
}
