package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
)

// identityFunc loads the account identity using an authorized client.
type identityFunc func(ctx context.Context, client *http.Client, token *oauth2.Token) (*models.ExternalIdentity, error)

// oauthProvider is a standard authorization code provider on top of
// golang.org/x/oauth2.
type oauthProvider struct {
	desc       Descriptor
	config     *oauth2.Config
	httpClient *http.Client
	// Some providers expect comma separated scopes.
	scopeSeparator string
	authParams     []oauth2.AuthCodeOption
	identity       identityFunc
}

func newOAuthProvider(desc Descriptor, creds Credentials, authStyle oauth2.AuthStyle, o options, identity identityFunc) *oauthProvider {
	return &oauthProvider{
		desc: desc,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       desc.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   desc.AuthorizationEndpoint,
				TokenURL:  desc.TokenEndpoint,
				AuthStyle: authStyle,
			},
		},
		httpClient:     o.httpClient,
		scopeSeparator: " ",
		identity:       identity,
	}
}

func (p *oauthProvider) Descriptor() Descriptor {
	return p.desc
}

func (p *oauthProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	all := make([]oauth2.AuthCodeOption, 0, len(p.authParams)+len(opts)+1)
	all = append(all, p.authParams...)
	if p.scopeSeparator != " " {
		all = append(all, oauth2.SetAuthURLParam("scope", strings.Join(p.desc.Scopes, p.scopeSeparator)))
	}
	all = append(all, opts...)
	return p.config.AuthCodeURL(state, all...)
}

func (p *oauthProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := p.config.Exchange(p.contextWithHTTPClient(ctx), code, opts...)
	if err != nil {
		return nil, exchangeError(p.desc.Platform, err)
	}
	return token, nil
}

func (p *oauthProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
	ctx = p.contextWithHTTPClient(ctx)
	client := p.config.Client(ctx, token)

	identity, err := p.identity(ctx, client, token)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return nil, ue
		}
		return nil, &UpstreamError{Platform: p.desc.Platform, Op: OpIdentity, Err: err}
	}
	if identity.PlatformUserID == "" {
		return nil, &UpstreamError{Platform: p.desc.Platform, Op: OpIdentity, Err: ErrNoIdentity}
	}

	identity.Platform = p.desc.Platform
	return identity, nil
}

func (p *oauthProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	if p.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	return ctx
}

// getJSON fetches url with client and decodes a 200 response into out.
func getJSON(ctx context.Context, client *http.Client, platform models.Platform, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &UpstreamError{Platform: platform, Op: OpIdentity, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &UpstreamError{Platform: platform, Op: OpIdentity, Err: fmt.Errorf("fetch identity: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &UpstreamError{Platform: platform, Op: OpIdentity, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{
			Platform:   platform,
			Op:         OpIdentity,
			StatusCode: resp.StatusCode,
			Payload:    truncatePayload(body),
			Err:        fmt.Errorf("identity request returned status %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{
			Platform:   platform,
			Op:         OpIdentity,
			StatusCode: resp.StatusCode,
			Payload:    truncatePayload(body),
			Err:        fmt.Errorf("decode identity: %w", err),
		}
	}
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
