package job

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/repository"
)

func TestSweepExpired(t *testing.T) {
	t.Parallel()

	epoch := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	store := repository.NewMemoryHandshakeRepository()
	ctx := context.Background()

	for token, ttl := range map[string]time.Duration{"short": time.Minute, "long": time.Hour} {
		require.NoError(t, store.Create(ctx, &models.HandshakeRecord{
			StateToken: token,
			Platform:   models.PlatformInstagram,
			ProfileID:  "p1",
			CreatedAt:  epoch,
			ExpiresAt:  epoch.Add(ttl),
		}))
	}

	job := NewHandshakeSweepJob(store)
	job.now = func() time.Time { return epoch.Add(10 * time.Minute) }
	job.SweepExpired()

	_, err := store.Claim(ctx, "short", epoch)
	require.ErrorIs(t, err, repository.ErrHandshakeNotFound)

	rec, err := store.Claim(ctx, "long", epoch.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "p1", rec.ProfileID)
}

func TestSpecIsAcceptedByCron(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "@every 5m0s", Spec(5*time.Minute))

	c := cron.New()
	require.NoError(t, c.AddFunc(Spec(time.Minute), func() {}))
	assert.Len(t, c.Entries(), 1)
}
