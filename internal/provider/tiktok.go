package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	tiktokAuthURL     = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokTokenURL    = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokIdentityURL = "https://open.tiktokapis.com/v2/user/info/"
	tiktokFields      = "open_id,union_id,avatar_url,display_name,username,profile_deep_link,is_verified,follower_count,following_count,video_count"
)

var errTiktokRejected = errors.New("tiktok rejected the request")

// tiktokProvider speaks TikTok's variant of OAuth 2.0, which names the
// client identifier client_key and joins scopes with commas.
type tiktokProvider struct {
	desc       Descriptor
	creds      Credentials
	httpClient *http.Client
}

func newTiktokProvider(creds Credentials, o options) Provider {
	return &tiktokProvider{
		desc: Descriptor{
			Platform:              models.PlatformTiktok,
			AuthorizationEndpoint: tiktokAuthURL,
			TokenEndpoint:         tiktokTokenURL,
			IdentityEndpoint:      tiktokIdentityURL,
			Scopes:                []string{"user.info.basic", "user.info.profile", "user.info.stats"},
		},
		creds:      creds,
		httpClient: o.httpClient,
	}
}

func (p *tiktokProvider) Descriptor() Descriptor {
	return p.desc
}

func (p *tiktokProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	cfg := &oauth2.Config{
		ClientID:    p.creds.ClientID,
		RedirectURL: p.creds.RedirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: p.desc.AuthorizationEndpoint},
	}
	raw := cfg.AuthCodeURL(state, append([]oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("scope", strings.Join(p.desc.Scopes, ",")),
	}, opts...)...)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	params := u.Query()
	params.Del("client_id")
	params.Set("client_key", p.creds.ClientID)
	u.RawQuery = params.Encode()
	return u.String()
}

func (p *tiktokProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	data := url.Values{}
	data.Set("client_key", p.creds.ClientID)
	data.Set("client_secret", p.creds.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", p.creds.RedirectURL)
	if verifier != "" {
		data.Set("code_verifier", verifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.desc.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, exchangeError(p.desc.Platform, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, exchangeError(p.desc.Platform, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, exchangeError(p.desc.Platform, err)
	}

	var tokenResponse transfer.TiktokTokenResponse
	decodeErr := json.Unmarshal(body, &tokenResponse)

	if resp.StatusCode != http.StatusOK || decodeErr != nil || tokenResponse.Error != "" || tokenResponse.AccessToken == "" {
		cause := errTiktokRejected
		if decodeErr != nil {
			cause = fmt.Errorf("failed to decode token response: %w", decodeErr)
		} else if tokenResponse.Error != "" {
			cause = fmt.Errorf("%w: %s", errTiktokRejected, tokenResponse.Error)
		}
		return nil, &UpstreamError{
			Platform:   p.desc.Platform,
			Op:         OpExchange,
			StatusCode: resp.StatusCode,
			Payload:    truncatePayload(body),
			Err:        cause,
		}
	}

	token := &oauth2.Token{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		TokenType:    "Bearer",
	}
	if tokenResponse.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second)
	}
	return token, nil
}

func (p *tiktokProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	var result transfer.TikTokResponse
	if err := getJSON(ctx, client, p.desc.Platform, tiktokIdentityURL+"?fields="+tiktokFields, &result); err != nil {
		return nil, err
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return nil, &UpstreamError{
			Platform:   p.desc.Platform,
			Op:         OpIdentity,
			StatusCode: http.StatusOK,
			Payload:    result.Error.Code + ": " + result.Error.Message,
			Err:        errTiktokRejected,
		}
	}

	user := result.Data.User
	if user.OpenID == "" {
		return nil, &UpstreamError{Platform: p.desc.Platform, Op: OpIdentity, Err: ErrNoIdentity}
	}

	identity := &models.ExternalIdentity{
		Platform:       p.desc.Platform,
		PlatformUserID: user.OpenID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		AvatarURL:      user.AvatarURL,
		ProfileURL:     user.ProfileDeepLink,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
		PostCount:      user.VideoCount,
		Verified:       user.IsVerified,
	}
	if identity.ProfileURL == "" && user.Username != "" {
		identity.ProfileURL = "https://www.tiktok.com/@" + url.PathEscape(user.Username)
	}
	return identity, nil
}

func (p *tiktokProvider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return http.DefaultClient
}
