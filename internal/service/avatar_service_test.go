package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/social-link-api/internal/models"
	"github.com/maheshrc27/social-link-api/internal/repository"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func seedAccountWithAvatar(t *testing.T, avatarURL string) (repository.SocialAccountRepository, *models.SocialAccount) {
	t.Helper()

	store := repository.NewMemoryAccountStore()
	require.NoError(t, store.Create(context.Background(), &models.Profile{ID: "p1", CreatedAt: testNow}))

	accounts := store.Accounts()
	identity := igIdentity("ig_42", "alice")
	identity.AvatarURL = avatarURL
	created, err := accounts.Create(context.Background(), models.NewSocialAccount("p1", identity, testNow))
	require.NoError(t, err)
	return accounts, created
}

func TestMirrorAvatar(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/alice.png":
			_, _ = w.Write(append(pngHeader, bytes.Repeat([]byte{0}, 64)...))
		case "/page.html":
			_, _ = w.Write([]byte("<html><body>not an image</body></html>"))
		case "/moved.png":
			http.Redirect(w, r, "https://metadata.internal/latest", http.StatusFound)
		case "/huge.png":
			_, _ = w.Write(append(pngHeader, bytes.Repeat([]byte{0}, maxAvatarBytes)...))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	t.Run("uploads image and points account at the copy", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, server.URL+"/alice.png")
		uploader := &fakeUploader{}
		svc := NewAvatarService(accounts, uploader, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.NoError(t, svc.MirrorAvatar(context.Background(), account.ID))

		require.Len(t, uploader.keys, 1)
		key := uploader.keys[0]
		assert.True(t, strings.HasPrefix(key, "avatars/"))
		assert.True(t, strings.HasSuffix(key, ".png"))
		assert.Equal(t, "image/png", uploader.contentType)

		got, err := accounts.GetByID(context.Background(), account.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/"+key, got.AvatarURL)
	})

	t.Run("rejects non image content", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, server.URL+"/page.html")
		uploader := &fakeUploader{}
		svc := NewAvatarService(accounts, uploader, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.ErrorIs(t, svc.MirrorAvatar(context.Background(), account.ID), ErrAvatarUnsupported)
		assert.Empty(t, uploader.keys)
	})

	t.Run("rejects oversized avatar", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, server.URL+"/huge.png")
		svc := NewAvatarService(accounts, &fakeUploader{}, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.ErrorIs(t, svc.MirrorAvatar(context.Background(), account.ID), ErrAvatarTooLarge)
	})

	t.Run("download failure", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, server.URL+"/missing.png")
		svc := NewAvatarService(accounts, &fakeUploader{}, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.Error(t, svc.MirrorAvatar(context.Background(), account.ID))
	})

	t.Run("rejects hosts outside the allow list", func(t *testing.T) {
		t.Parallel()
		for _, avatarURL := range []string{
			"http://127.0.0.1/alice.png",
			"https://169.254.169.254/latest/meta-data",
			"https://localhost/alice.png",
			"file:///etc/passwd",
		} {
			accounts, account := seedAccountWithAvatar(t, avatarURL)
			uploader := &fakeUploader{}
			svc := NewAvatarService(accounts, uploader, server.Client(), WithAvatarHosts("127.0.0.1"))

			require.ErrorIs(t, svc.MirrorAvatar(context.Background(), account.ID), ErrAvatarHostNotAllowed, avatarURL)
			assert.Empty(t, uploader.keys)
		}
	})

	t.Run("rejects redirects to other hosts", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, server.URL+"/moved.png")
		uploader := &fakeUploader{}
		svc := NewAvatarService(accounts, uploader, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.ErrorIs(t, svc.MirrorAvatar(context.Background(), account.ID), ErrAvatarHostNotAllowed)
		assert.Empty(t, uploader.keys)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		accounts, _ := seedAccountWithAvatar(t, server.URL+"/alice.png")
		svc := NewAvatarService(accounts, &fakeUploader{}, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.ErrorIs(t, svc.MirrorAvatar(context.Background(), "missing"), ErrAccountNotFound)
	})

	t.Run("account without avatar", func(t *testing.T) {
		t.Parallel()
		accounts, account := seedAccountWithAvatar(t, "")
		uploader := &fakeUploader{}
		svc := NewAvatarService(accounts, uploader, server.Client(), WithAvatarHosts("127.0.0.1"))

		require.NoError(t, svc.MirrorAvatar(context.Background(), account.ID))
		assert.Empty(t, uploader.keys)
	})
}

func TestDefaultAvatarHosts(t *testing.T) {
	t.Parallel()

	svc := NewAvatarService(nil, nil, nil).(*avatarService)
	for raw, allowed := range map[string]bool{
		"https://scontent.cdninstagram.com/v/alice.jpg": true,
		"https://pbs.twimg.com/profile_images/1/a.jpg":  true,
		"https://media.licdn.com/dms/image/a.jpg":       true,
		"https://yt3.ggpht.com/a.jpg":                   true,
		"https://evilcdninstagram.com/a.jpg":            false,
		"https://10.0.0.5/a.jpg":                        false,
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		if allowed {
			assert.NoError(t, svc.checkURL(u), raw)
		} else {
			assert.ErrorIs(t, svc.checkURL(u), ErrAvatarHostNotAllowed, raw)
		}
	}
}

func TestR2PublicURL(t *testing.T) {
	t.Parallel()

	r := &R2Service{}
	r.config.R2.AccountID = "acct"
	r.config.R2.BucketName = "media"
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/media/avatars/a.png", r.PublicURL("avatars/a.png"))

	r.config.R2.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/avatars/a.png", r.PublicURL("avatars/a.png"))
}
