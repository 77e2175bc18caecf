package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/maheshrc27/social-link-api/internal/models"
)

const (
	OpExchange = "exchange"
	OpIdentity = "identity"

	maxPayloadBytes = 2048
)

var (
	ErrUnknownProvider = errors.New("provider: unknown provider")
	ErrNoIdentity      = errors.New("provider: response carried no account identity")
)

// Credentials are the client registration for one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Descriptor is the static description of a provider.
type Descriptor struct {
	Platform              models.Platform
	AuthorizationEndpoint string
	TokenEndpoint         string
	IdentityEndpoint      string
	Scopes                []string
	RequiresProof         bool
}

// Provider performs the provider-specific parts of the authorization code
// flow. Exchange and FetchIdentity return *UpstreamError on failure.
type Provider interface {
	Descriptor() Descriptor
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error)
}

// UpstreamError describes a failed call to a provider.
type UpstreamError struct {
	Platform   models.Platform
	Op         string
	StatusCode int
	Payload    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status=%d: %v", e.Platform, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func exchangeError(platform models.Platform, err error) *UpstreamError {
	ue := &UpstreamError{Platform: platform, Op: OpExchange, Err: err}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			ue.StatusCode = re.Response.StatusCode
		}
		ue.Payload = truncatePayload(re.Body)
	}
	return ue
}

func truncatePayload(b []byte) string {
	if len(b) > maxPayloadBytes {
		b = b[:maxPayloadBytes]
	}
	return string(b)
}

// Option configures providers built by NewRegistry.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the HTTP client used for token and identity requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}
