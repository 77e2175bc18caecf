package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/social-link-api/internal/repository"
)

const (
	maxAvatarBytes  = 5 << 20
	avatarKeyPrefix = "avatars/"
)

var (
	ErrAvatarUnsupported    = errors.New("avatar is not a supported image")
	ErrAvatarTooLarge       = errors.New("avatar exceeds size limit")
	ErrAvatarHostNotAllowed = errors.New("avatar host is not allowed")
	ErrAccountNotFound      = errors.New("social account not found")
)

// DefaultAvatarHosts are the CDN domains providers serve profile pictures
// from. Subdomains match.
var DefaultAvatarHosts = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"twimg.com",
	"tiktokcdn.com",
	"tiktokcdn-us.com",
	"ggpht.com",
	"googleusercontent.com",
	"ytimg.com",
	"licdn.com",
}

// ObjectUploader stores objects and reports their public URL.
type ObjectUploader interface {
	UploadToR2(ctx context.Context, key string, file []byte, contentType string) error
	PublicURL(key string) string
}

type AvatarService interface {
	MirrorAvatar(ctx context.Context, accountID string) error
}

type AvatarOption func(*avatarService)

// WithAvatarHosts replaces DefaultAvatarHosts.
func WithAvatarHosts(hosts ...string) AvatarOption {
	return func(s *avatarService) {
		s.hosts = hosts
	}
}

type avatarService struct {
	accounts   repository.SocialAccountRepository
	uploader   ObjectUploader
	httpClient *http.Client
	hosts      []string
}

func NewAvatarService(accounts repository.SocialAccountRepository, uploader ObjectUploader, httpClient *http.Client, opts ...AvatarOption) AvatarService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	s := &avatarService{
		accounts: accounts,
		uploader: uploader,
		hosts:    DefaultAvatarHosts,
	}
	for _, opt := range opts {
		opt(s)
	}

	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("avatar download: too many redirects")
		}
		return s.checkURL(req.URL)
	}
	s.httpClient = &client
	return s
}

// MirrorAvatar copies the provider-hosted avatar of an account into object
// storage and points the account at the copy.
func (s *avatarService) MirrorAvatar(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.AvatarURL == "" {
		return nil
	}

	body, err := s.download(ctx, account.AvatarURL)
	if err != nil {
		return err
	}

	if !filetype.IsImage(body) {
		return ErrAvatarUnsupported
	}
	kind, err := filetype.Match(body)
	if err != nil {
		return err
	}

	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%s.%s", avatarKeyPrefix, id, kind.Extension)

	if err := s.uploader.UploadToR2(ctx, key, body, kind.MIME.Value); err != nil {
		return err
	}

	if err := s.accounts.UpdateAvatar(ctx, account.ID, s.uploader.PublicURL(key)); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	slog.Info("avatar mirrored", "account_id", account.ID, "key", key)
	return nil
}

// checkURL only lets https requests through to a known CDN host, so an
// account record cannot point the worker at internal addresses.
func (s *avatarService) checkURL(u *url.URL) error {
	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrAvatarHostNotAllowed, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range s.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAvatarHostNotAllowed, host)
}

func (s *avatarService) download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvatarHostNotAllowed, err)
	}
	if err := s.checkURL(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxAvatarBytes {
		return nil, ErrAvatarTooLarge
	}
	return body, nil
}
