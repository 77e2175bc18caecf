package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	instagramAuthURL     = "https://www.instagram.com/oauth/authorize"
	instagramTokenURL    = "https://api.instagram.com/oauth/access_token"
	instagramIdentityURL = "https://graph.instagram.com/me"
	instagramFields      = "id,username,name,account_type,profile_picture_url,followers_count,follows_count,media_count"
)

func newInstagramProvider(creds Credentials, o options) Provider {
	desc := Descriptor{
		Platform:              models.PlatformInstagram,
		AuthorizationEndpoint: instagramAuthURL,
		TokenEndpoint:         instagramTokenURL,
		IdentityEndpoint:      instagramIdentityURL,
		Scopes:                []string{"instagram_business_basic"},
	}

	p := newOAuthProvider(desc, creds, oauth2.AuthStyleInParams, o, fetchInstagramIdentity)
	p.scopeSeparator = ","
	return p
}

func fetchInstagramIdentity(ctx context.Context, client *http.Client, token *oauth2.Token) (*models.ExternalIdentity, error) {
	params := url.Values{}
	params.Set("fields", instagramFields)
	params.Set("access_token", token.AccessToken)

	var info transfer.InstagramUserInfo
	if err := getJSON(ctx, client, models.PlatformInstagram, instagramIdentityURL+"?"+params.Encode(), &info); err != nil {
		return nil, withInstagramError(err)
	}

	identity := &models.ExternalIdentity{
		PlatformUserID: info.UserID,
		Username:       info.Username,
		DisplayName:    info.Name,
		AvatarURL:      info.ProfilePicture,
		FollowerCount:  info.FollowersCount,
		FollowingCount: info.FollowsCount,
		PostCount:      info.MediaCount,
	}
	if info.Username != "" {
		identity.ProfileURL = "https://www.instagram.com/" + url.PathEscape(info.Username)
	}
	return identity, nil
}

// withInstagramError adds the Graph API error message to a failed identity
// request.
func withInstagramError(err error) error {
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Payload == "" {
		return err
	}

	var apiErr transfer.InstagramErrorResponse
	if json.Unmarshal([]byte(ue.Payload), &apiErr) != nil || apiErr.Error.Message == "" {
		return err
	}

	ue.Err = fmt.Errorf("%s (%s, code %d): %w", apiErr.Error.Message, apiErr.Error.Type, apiErr.Error.Code, ue.Err)
	return ue
}
