package provider

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	linkedinAuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	linkedinTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinIdentityURL = "https://api.linkedin.com/v2/userinfo"
)

func newLinkedinProvider(creds Credentials, o options) Provider {
	desc := Descriptor{
		Platform:              models.PlatformLinkedin,
		AuthorizationEndpoint: linkedinAuthURL,
		TokenEndpoint:         linkedinTokenURL,
		IdentityEndpoint:      linkedinIdentityURL,
		Scopes:                []string{"openid", "profile", "email"},
	}

	return newOAuthProvider(desc, creds, oauth2.AuthStyleInParams, o, fetchLinkedinIdentity)
}

// LinkedIn's OpenID userinfo has no public handle, so the verified email
// stands in for the username.
func fetchLinkedinIdentity(ctx context.Context, client *http.Client, _ *oauth2.Token) (*models.ExternalIdentity, error) {
	var info transfer.LinkedinUserInfo
	if err := getJSON(ctx, client, models.PlatformLinkedin, linkedinIdentityURL, &info); err != nil {
		return nil, err
	}

	username := info.Sub
	if info.Email != "" && info.EmailVerified {
		username = info.Email
	}

	return &models.ExternalIdentity{
		PlatformUserID: info.Sub,
		Username:       username,
		DisplayName:    info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
