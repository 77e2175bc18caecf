package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/provider"
	"github.com/maheshrc27/social-link-api/internal/repository"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

func newAttachmentFixture(t *testing.T, profileIDs ...string) (AttachmentService, *repository.MemoryAccountStore, *fakeEnqueuer) {
	t.Helper()

	store := repository.NewMemoryAccountStore()
	for _, id := range profileIDs {
		require.NoError(t, store.Create(context.Background(), &models.Profile{ID: id, CreatedAt: testNow}))
	}
	enqueuer := &fakeEnqueuer{}
	return NewAttachmentService(store, store.Accounts(), enqueuer), store, enqueuer
}

func igIdentity(id, username string) models.ExternalIdentity {
	return models.ExternalIdentity{
		Platform:       models.PlatformInstagram,
		PlatformUserID: id,
		Username:       username,
	}
}

func TestAttach_IsIdempotent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAttachmentFixture(t, "p1")
	ctx := context.Background()

	first, err := svc.Attach(ctx, "p1", igIdentity("ig_42", "alice"))
	require.NoError(t, err)
	assert.False(t, first.AlreadyLinked)

	second, err := svc.Attach(ctx, "p1", igIdentity("ig_42", "alice"))
	require.NoError(t, err)
	assert.True(t, second.AlreadyLinked)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	accounts, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAttach_RejectsAccountLinkedElsewhere(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAttachmentFixture(t, "p1", "p2")
	ctx := context.Background()

	_, err := svc.Attach(ctx, "p1", igIdentity("ig_42", "alice"))
	require.NoError(t, err)

	_, err = svc.Attach(ctx, "p2", igIdentity("ig_42", "alice"))
	require.ErrorIs(t, err, ErrAccountLinkedElsewhere)

	accounts, err := svc.List(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	accounts, err = svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "p1", accounts[0].ProfileID)
}

func TestAttach_AppendsWithoutTouchingOtherAccounts(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAttachmentFixture(t, "p1")
	ctx := context.Background()

	_, err := svc.Attach(ctx, "p1", igIdentity("ig_42", "alice"))
	require.NoError(t, err)
	_, err = svc.Attach(ctx, "p1", models.ExternalIdentity{
		Platform:       models.PlatformTwitter,
		PlatformUserID: "tw_7",
		Username:       "alice_tw",
	})
	require.NoError(t, err)
	_, err = svc.Attach(ctx, "p1", igIdentity("ig_43", "alice_alt"))
	require.NoError(t, err)

	accounts, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	got := map[string]string{}
	for _, a := range accounts {
		got[a.PlatformID] = a.Username
	}
	assert.Equal(t, map[string]string{"ig_42": "alice", "tw_7": "alice_tw", "ig_43": "alice_alt"}, got)
}

func TestAttach_ProfileErrors(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAttachmentFixture(t, "p1")
	ctx := context.Background()

	_, err := svc.Attach(ctx, "ghost", igIdentity("ig_42", "alice"))
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Attach(ctx, "bad id", igIdentity("ig_42", "alice"))
	require.ErrorIs(t, err, ErrInvalidProfile)

	_, err = svc.List(ctx, "ghost")
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Attach(ctx, "p1", models.ExternalIdentity{Platform: models.PlatformInstagram})
	require.Error(t, err)
}

func TestAttach_ConcurrentSameIdentity(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAttachmentFixture(t, "p1")
	ctx := context.Background()

	const callers = 16
	var fresh, linked atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := svc.Attach(ctx, "p1", igIdentity("ig_42", "alice"))
			if !assert.NoError(t, err) {
				return
			}
			if res.AlreadyLinked {
				linked.Add(1)
			} else {
				fresh.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), fresh.Load())
	assert.Equal(t, int32(callers-1), linked.Load())
}

func TestAttach_EnqueuesAvatarMirrorOnce(t *testing.T) {
	t.Parallel()
	svc, _, enqueuer := newAttachmentFixture(t, "p1")
	ctx := context.Background()

	identity := igIdentity("ig_42", "alice")
	identity.AvatarURL = "https://cdn.instagram.com/alice.jpg"

	res, err := svc.Attach(ctx, "p1", identity)
	require.NoError(t, err)
	_, err = svc.Attach(ctx, "p1", identity)
	require.NoError(t, err)

	assert.Equal(t, []string{res.Account.ID}, enqueuer.enqueued())

	_, err = svc.Attach(ctx, "p1", igIdentity("ig_99", "no_avatar"))
	require.NoError(t, err)
	assert.Len(t, enqueuer.enqueued(), 1)
}

func TestAttach_EnqueueFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	svc, _, enqueuer := newAttachmentFixture(t, "p1")
	enqueuer.err = errors.New("redis down")

	identity := igIdentity("ig_42", "alice")
	identity.AvatarURL = "https://cdn.instagram.com/alice.jpg"

	res, err := svc.Attach(context.Background(), "p1", identity)
	require.NoError(t, err)
	assert.False(t, res.AlreadyLinked)
}

// The end-to-end linking of p1 to instagram ig_42, and its replay.
func TestLinkInstagramAccountEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	attach, _, _ := newAttachmentFixture(t, "p1")
	ig := newFakeProvider(models.PlatformInstagram, false, igIdentity("ig_42", "alice"))
	handshakes := NewHandshakeService(testConfig(), provider.NewStaticRegistry(ig), repository.NewMemoryHandshakeRepository())

	res, err := handshakes.Initiate(ctx, "p1", "instagram")
	require.NoError(t, err)

	verified, err := handshakes.Complete(ctx, transfer.CompleteInput{
		StateToken:            res.StateToken,
		AuthorizationArtifact: "code-1",
		Platform:              "instagram",
	})
	require.NoError(t, err)

	result, err := attach.Attach(ctx, verified.ProfileID, verified.Identity)
	require.NoError(t, err)
	assert.False(t, result.AlreadyLinked)
	assert.Equal(t, "p1", result.Account.ProfileID)
	assert.Equal(t, models.PlatformInstagram, result.Account.Platform)
	assert.Equal(t, "ig_42", result.Account.PlatformID)
	assert.Equal(t, "alice", result.Account.Username)

	_, err = handshakes.Complete(ctx, transfer.CompleteInput{
		StateToken:            res.StateToken,
		AuthorizationArtifact: "code-1",
		Platform:              "instagram",
	})
	require.ErrorIs(t, err, ErrStateAlreadyConsumed)

	accounts, err := attach.List(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
