package models

import "time"

// HandshakeRecord is the server-held correlation state of one in-flight
// linking attempt. It is claimed at most once.
type HandshakeRecord struct {
	StateToken    string     `db:"state_token" json:"state_token"`
	Platform      Platform   `db:"platform" json:"platform"`
	ProfileID     string     `db:"profile_id" json:"profile_id"`
	ProofVerifier string     `db:"proof_verifier" json:"proof_verifier,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt    *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
}

func (r *HandshakeRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *HandshakeRecord) Consumed() bool {
	return r.ConsumedAt != nil
}
