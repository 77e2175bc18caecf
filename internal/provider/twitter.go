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
	twitterAuthURL     = "https://x.com/i/oauth2/authorize"
	twitterTokenURL    = "https://api.x.com/2/oauth2/token"
	twitterIdentityURL = "https://api.x.com/2/users/me"
)

func newTwitterProvider(creds Credentials, o options) Provider {
	desc := Descriptor{
		Platform:              models.PlatformTwitter,
		AuthorizationEndpoint: twitterAuthURL,
		TokenEndpoint:         twitterTokenURL,
		IdentityEndpoint:      twitterIdentityURL,
		Scopes:                []string{"tweet.read", "users.read"},
		RequiresProof:         true,
	}

	return newOAuthProvider(desc, creds, oauth2.AuthStyleInHeader, o, fetchTwitterIdentity)
}

func fetchTwitterIdentity(ctx context.Context, client *http.Client, _ *oauth2.Token) (*models.ExternalIdentity, error) {
	params := url.Values{}
	params.Set("user.fields", "profile_image_url,public_metrics,verified")

	var resp transfer.TwitterUserResponse
	if err := getJSON(ctx, client, models.PlatformTwitter, twitterIdentityURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	user := resp.Data
	identity := &models.ExternalIdentity{
		PlatformUserID: user.ID,
		Username:       user.Username,
		DisplayName:    user.Name,
		AvatarURL:      user.ProfileImageURL,
		Verified:       user.Verified,
	}
	if user.Username != "" {
		identity.ProfileURL = "https://x.com/" + url.PathEscape(user.Username)
	}
	if m := user.PublicMetrics; m != nil {
		identity.FollowerCount = int64Ptr(m.FollowersCount)
		identity.FollowingCount = int64Ptr(m.FollowingCount)
		identity.PostCount = int64Ptr(m.TweetCount)
	}
	return identity, nil
}
