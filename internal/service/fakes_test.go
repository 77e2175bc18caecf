package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	config "github.com/maheshrc27/social-link-api/configs"
	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/provider"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		HandshakeTTL:    10 * time.Minute,
		ProviderTimeout: time.Second,
	}
}

// fakeProvider stands in for a provider's token and identity endpoints.
type fakeProvider struct {
	desc provider.Descriptor

	mu            sync.Mutex
	exchangeCalls atomic.Int32
	gotCode       string
	gotVerifier   string
	exchangeErr   error
	identityErr   error
	identity      models.ExternalIdentity
	// blockExchange makes Exchange wait for its context to end.
	blockExchange bool
}

func newFakeProvider(platform models.Platform, requiresProof bool, identity models.ExternalIdentity) *fakeProvider {
	return &fakeProvider{
		desc: provider.Descriptor{
			Platform:              platform,
			AuthorizationEndpoint: "https://" + string(platform) + ".test/authorize",
			TokenEndpoint:         "https://" + string(platform) + ".test/token",
			IdentityEndpoint:      "https://" + string(platform) + ".test/me",
			Scopes:                []string{"profile"},
			RequiresProof:         requiresProof,
		},
		identity: identity,
	}
}

func (p *fakeProvider) Descriptor() provider.Descriptor {
	return p.desc
}

func (p *fakeProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	cfg := &oauth2.Config{
		ClientID: "client-" + string(p.desc.Platform),
		Scopes:   p.desc.Scopes,
		Endpoint: oauth2.Endpoint{AuthURL: p.desc.AuthorizationEndpoint},
	}
	return cfg.AuthCodeURL(state, opts...)
}

func (p *fakeProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	p.exchangeCalls.Add(1)

	p.mu.Lock()
	p.gotCode = code
	p.gotVerifier = verifier
	err := p.exchangeErr
	block := p.blockExchange
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, &provider.UpstreamError{Platform: p.desc.Platform, Op: provider.OpExchange, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: "access-" + code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) FetchIdentity(_ context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.identityErr != nil {
		return nil, p.identityErr
	}
	identity := p.identity
	identity.Platform = p.desc.Platform
	return &identity, nil
}

type fakeEnqueuer struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (e *fakeEnqueuer) EnqueueAvatarMirror(_ context.Context, accountID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, accountID)
	return e.err
}

func (e *fakeEnqueuer) enqueued() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

type fakeUploader struct {
	mu          sync.Mutex
	keys        []string
	contentType string
	err         error
}

func (u *fakeUploader) UploadToR2(_ context.Context, key string, _ []byte, contentType string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.keys = append(u.keys, key)
	u.contentType = contentType
	return nil
}

func (u *fakeUploader) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
