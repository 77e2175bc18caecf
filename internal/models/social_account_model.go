package models

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformTiktok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformYoutube   Platform = "youtube"
	PlatformLinkedin  Platform = "linkedin"
)

// Platforms lists every provider an account can be linked from.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformTwitter,
	PlatformTiktok,
	PlatformFacebook,
	PlatformYoutube,
	PlatformLinkedin,
}

// ParsePlatform normalizes s and reports whether it names a known platform.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

type SocialAccount struct {
	ID             string    `db:"id" json:"id"`
	ProfileID      string    `db:"profile_id" json:"profile_id"`
	Platform       Platform  `db:"platform" json:"platform"`
	PlatformID     string    `db:"platform_id" json:"platform_id"`
	Username       string    `db:"username" json:"username"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	AvatarURL      string    `db:"avatar_url" json:"avatar_url"`
	ProfileURL     string    `db:"profile_url" json:"profile_url"`
	FollowerCount  int64     `db:"follower_count" json:"follower_count"`
	FollowingCount int64     `db:"following_count" json:"following_count"`
	PostCount      int64     `db:"post_count" json:"post_count"`
	EngagementRate float64   `db:"engagement_rate" json:"engagement_rate"`
	Verified       bool      `db:"verified" json:"verified"`
	LastSyncedAt   time.Time `db:"last_synced_at" json:"last_synced_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ExternalIdentity is the provider-reported identity obtained through a
// server-side token exchange. (Platform, PlatformUserID) is its natural key.
type ExternalIdentity struct {
	Platform       Platform `json:"platform"`
	PlatformUserID string   `json:"platform_user_id"`
	Username       string   `json:"username"`
	DisplayName    string   `json:"display_name,omitempty"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	ProfileURL     string   `json:"profile_url,omitempty"`
	FollowerCount  *int64   `json:"follower_count,omitempty"`
	FollowingCount *int64   `json:"following_count,omitempty"`
	PostCount      *int64   `json:"post_count,omitempty"`
	Verified       bool     `json:"verified"`
}

// VerifiedIdentity pairs an identity with the profile bound to the
// handshake that produced it.
type VerifiedIdentity struct {
	ProfileID string           `json:"profile_id"`
	Identity  ExternalIdentity `json:"identity"`
}

// NewSocialAccount builds the durable record for identity on profileID.
// Missing counters are stored as zero.
func NewSocialAccount(profileID string, identity ExternalIdentity, now time.Time) *SocialAccount {
	return &SocialAccount{
		ProfileID:      profileID,
		Platform:       identity.Platform,
		PlatformID:     identity.PlatformUserID,
		Username:       identity.Username,
		DisplayName:    identity.DisplayName,
		AvatarURL:      identity.AvatarURL,
		ProfileURL:     identity.ProfileURL,
		FollowerCount:  valueOrZero(identity.FollowerCount),
		FollowingCount: valueOrZero(identity.FollowingCount),
		PostCount:      valueOrZero(identity.PostCount),
		Verified:       identity.Verified,
		LastSyncedAt:   now,
		CreatedAt:      now,
	}
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
