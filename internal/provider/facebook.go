package provider

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	facebookGraphVersion = "v19.0"
	facebookAuthURL      = "https://www.facebook.com/" + facebookGraphVersion + "/dialog/oauth"
	facebookTokenURL     = "https://graph.facebook.com/" + facebookGraphVersion + "/oauth/access_token"
	facebookIdentityURL  = "https://graph.facebook.com/" + facebookGraphVersion + "/me"
)

func newFacebookProvider(creds Credentials, o options) Provider {
	desc := Descriptor{
		Platform:              models.PlatformFacebook,
		AuthorizationEndpoint: facebookAuthURL,
		TokenEndpoint:         facebookTokenURL,
		IdentityEndpoint:      facebookIdentityURL,
		Scopes:                []string{"public_profile"},
	}

	p := newOAuthProvider(desc, creds, oauth2.AuthStyleInParams, o, fetchFacebookIdentity)
	p.scopeSeparator = ","
	return p
}

func fetchFacebookIdentity(ctx context.Context, client *http.Client, token *oauth2.Token) (*models.ExternalIdentity, error) {
	params := url.Values{}
	params.Set("fields", "id,name,link,picture.type(large)")
	params.Set("access_token", token.AccessToken)

	var user transfer.FacebookUser
	if err := getJSON(ctx, client, models.PlatformFacebook, facebookIdentityURL+"?"+params.Encode(), &user); err != nil {
		return nil, err
	}

	identity := &models.ExternalIdentity{
		PlatformUserID: user.ID,
		Username:       user.Name,
		DisplayName:    user.Name,
		ProfileURL:     user.Link,
	}
	if !user.Picture.Data.IsSilhouette {
		identity.AvatarURL = user.Picture.Data.URL
	}
	if identity.ProfileURL == "" && user.ID != "" {
		identity.ProfileURL = "https://www.facebook.com/" + url.PathEscape(user.ID)
	}
	return identity, nil
}
