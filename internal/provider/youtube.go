package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/maheshrc27/social-link-api/internal/models"
)

const youtubeIdentityURL = "https://youtube.googleapis.com/youtube/v3/channels"

func newYoutubeProvider(creds Credentials, o options) Provider {
	desc := Descriptor{
		Platform:              models.PlatformYoutube,
		AuthorizationEndpoint: google.Endpoint.AuthURL,
		TokenEndpoint:         google.Endpoint.TokenURL,
		IdentityEndpoint:      youtubeIdentityURL,
		Scopes:                []string{youtube.YoutubeReadonlyScope},
		RequiresProof:         true,
	}

	p := newOAuthProvider(desc, creds, google.Endpoint.AuthStyle, o, fetchYoutubeIdentity)
	p.authParams = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	return p
}

func fetchYoutubeIdentity(ctx context.Context, client *http.Client, _ *oauth2.Token) (*models.ExternalIdentity, error) {
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}

	resp, err := service.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		ue := &UpstreamError{Platform: models.PlatformYoutube, Op: OpIdentity, Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			ue.StatusCode = gerr.Code
			ue.Payload = truncatePayload([]byte(gerr.Body))
		}
		return nil, ue
	}
	if len(resp.Items) == 0 {
		return nil, ErrNoIdentity
	}

	return youtubeChannelIdentity(resp.Items[0]), nil
}

func youtubeChannelIdentity(ch *youtube.Channel) *models.ExternalIdentity {
	identity := &models.ExternalIdentity{
		PlatformUserID: ch.Id,
		ProfileURL:     "https://www.youtube.com/channel/" + url.PathEscape(ch.Id),
	}

	if s := ch.Snippet; s != nil {
		identity.DisplayName = s.Title
		identity.Username = strings.TrimPrefix(s.CustomUrl, "@")
		if identity.Username == "" {
			identity.Username = s.Title
		} else {
			identity.ProfileURL = "https://www.youtube.com/@" + url.PathEscape(identity.Username)
		}
		if t := s.Thumbnails; t != nil {
			for _, thumb := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
				if thumb != nil && thumb.Url != "" {
					identity.AvatarURL = thumb.Url
					break
				}
			}
		}
	}

	if st := ch.Statistics; st != nil {
		if !st.HiddenSubscriberCount {
			identity.FollowerCount = int64Ptr(int64(st.SubscriberCount))
		}
		identity.PostCount = int64Ptr(int64(st.VideoCount))
	}
	return identity
}
