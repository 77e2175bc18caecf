package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/social-link-api/internal/models"
)

func newTestAccount(profileID string, platform models.Platform, platformID string, at time.Time) *models.SocialAccount {
	return models.NewSocialAccount(profileID, models.ExternalIdentity{
		Platform:       platform,
		PlatformUserID: platformID,
		Username:       "user_" + platformID,
	}, at)
}

func seedProfiles(t *testing.T, repo ProfileRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &models.Profile{ID: id, CreatedAt: testEpoch}))
	}
}

func TestMemoryAccountStore_Profiles(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	seedProfiles(t, store, "p1")

	ok, err = store.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := store.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.ID)

	p, err = store.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryAccountStore_Accounts(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	accounts := store.Accounts()
	ctx := context.Background()
	seedProfiles(t, store, "p1", "p2")

	t.Run("create assigns id", func(t *testing.T) {
		created, err := accounts.Create(ctx, newTestAccount("p1", models.PlatformInstagram, "ig_42", testEpoch))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		got, err := accounts.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("natural key is unique across profiles", func(t *testing.T) {
		_, err := accounts.Create(ctx, newTestAccount("p2", models.PlatformInstagram, "ig_42", testEpoch))
		require.ErrorIs(t, err, ErrDuplicateAccount)

		_, err = accounts.Create(ctx, newTestAccount("p1", models.PlatformInstagram, "ig_42", testEpoch))
		require.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("same platform id on another platform is distinct", func(t *testing.T) {
		_, err := accounts.Create(ctx, newTestAccount("p2", models.PlatformTiktok, "ig_42", testEpoch))
		require.NoError(t, err)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := accounts.Create(ctx, newTestAccount("ghost", models.PlatformTwitter, "tw_1", testEpoch))
		require.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("lookup by platform id", func(t *testing.T) {
		sa, err := accounts.GetByPlatformID(ctx, models.PlatformInstagram, "ig_42")
		require.NoError(t, err)
		require.NotNil(t, sa)
		assert.Equal(t, "p1", sa.ProfileID)

		sa, err = accounts.GetByPlatformID(ctx, models.PlatformInstagram, "ig_404")
		require.NoError(t, err)
		assert.Nil(t, sa)
	})
}

func TestMemoryAccountStore_ListOrderAndAvatar(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	accounts := store.Accounts()
	ctx := context.Background()
	seedProfiles(t, store, "p1")

	second, err := accounts.Create(ctx, newTestAccount("p1", models.PlatformYoutube, "UC1", testEpoch.Add(time.Minute)))
	require.NoError(t, err)
	first, err := accounts.Create(ctx, newTestAccount("p1", models.PlatformTwitter, "tw_1", testEpoch))
	require.NoError(t, err)

	list, err := accounts.ListByProfileID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	list, err = accounts.ListByProfileID(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, accounts.UpdateAvatar(ctx, first.ID, "https://cdn.example.com/avatars/a.png"))
	got, err := accounts.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/a.png", got.AvatarURL)

	require.ErrorIs(t, accounts.UpdateAvatar(ctx, "missing", "x"), ErrAccountNotFound)
}
