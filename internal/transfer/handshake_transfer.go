package transfer

import (
	"time"

	"github.com/maheshrc27/social-link-api/internal/models"
)

type InitiateRequest struct {
	ProfileID string `json:"profile_id" form:"profile_id"`
	Provider  string `json:"provider" form:"provider"`
}

// InitiateResult is returned by the initiator. ProofVerifier never leaves
// the process.
type InitiateResult struct {
	AuthorizationURL string    `json:"authorization_url"`
	StateToken       string    `json:"state_token"`
	ProofVerifier    string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type CompleteRequest struct {
	StateToken            string `json:"state_token" form:"state_token" query:"state_token"`
	AuthorizationArtifact string `json:"authorization_artifact" form:"authorization_artifact" query:"authorization_artifact"`
}

type CompleteInput struct {
	StateToken            string
	AuthorizationArtifact string
	// Platform is the provider named by the callback route, if any.
	Platform string
}

type CompleteResponse struct {
	Platform      models.Platform `json:"platform"`
	Username      string          `json:"username"`
	PlatformID    string          `json:"platform_id"`
	ProfileID     string          `json:"profile_id"`
	AccountID     string          `json:"account_id"`
	AlreadyLinked bool            `json:"already_linked"`
}

type AttachResult struct {
	Account       *models.SocialAccount
	AlreadyLinked bool
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
