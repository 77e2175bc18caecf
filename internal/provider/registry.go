package provider

import (
	"log/slog"

	"github.com/maheshrc27/social-link-api/internal/models"
)

// Registry maps provider ids to providers. It is read-only once built.
type Registry struct {
	providers map[models.Platform]Provider
}

// NewRegistry builds every supported provider from its credentials.
// Providers without credentials are still registered so they can be
// described; their authorization requests will be rejected upstream.
func NewRegistry(creds map[models.Platform]Credentials, opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	builders := map[models.Platform]func(Credentials, options) Provider{
		models.PlatformInstagram: newInstagramProvider,
		models.PlatformTwitter:   newTwitterProvider,
		models.PlatformTiktok:    newTiktokProvider,
		models.PlatformFacebook:  newFacebookProvider,
		models.PlatformYoutube:   newYoutubeProvider,
		models.PlatformLinkedin:  newLinkedinProvider,
	}

	providers := make([]Provider, 0, len(builders))
	for _, platform := range models.Platforms {
		c := creds[platform]
		if c.ClientID == "" {
			slog.Warn("provider has no client id configured", "platform", platform)
		}
		providers = append(providers, builders[platform](c, o))
	}
	return NewStaticRegistry(providers...)
}

// NewStaticRegistry registers the given providers under their descriptor
// platform.
func NewStaticRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Platform]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Descriptor().Platform] = p
	}
	return r
}

func (r *Registry) Lookup(name string) (Provider, error) {
	platform, ok := models.ParsePlatform(name)
	if !ok {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[platform]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

func (r *Registry) Describe(name string) (Descriptor, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return Descriptor{}, err
	}
	return p.Descriptor(), nil
}
