package handlers

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	config "github.com/maheshrc27/social-link-api/configs"
	"github.com/maheshrc27/social-link-api/internal/service"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

type PlatformHandler struct {
	linker
	cfg config.Config
}

func NewPlatformHandler(hs service.HandshakeService, as service.AttachmentService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		linker: linker{hs: hs, as: as},
		cfg:    cfg,
	}
}

// AddSocialAccount starts a handshake and sends the browser to the provider.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	profileID := fiberutils.CopyString(c.Query("profile_id"))
	platform := fiberutils.CopyString(c.Params("platform"))

	res, err := h.hs.Initiate(c.Context(), profileID, platform)
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(res.AuthorizationURL, fiber.StatusFound)
}

// CallbackHandler finishes a handshake from the provider redirect and sends
// the browser back to the dashboard with the outcome.
func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform := c.Params("platform")
	state := c.Query("state")

	if denied := c.Query("error"); denied != "" {
		slog.Info("authorization declined at provider", "platform", platform, "reason", denied)
		if state != "" {
			if err := h.hs.Abort(c.Context(), state); err != nil {
				slog.Info(err.Error())
			}
		}
		return c.Redirect(h.dashboardURL("error", KindAuthorizationDenied), fiber.StatusTemporaryRedirect)
	}

	if state == "" {
		return c.Redirect(h.dashboardURL("error", KindStateNotFound), fiber.StatusTemporaryRedirect)
	}

	_, err := h.link(c.Context(), transfer.CompleteInput{
		StateToken:            state,
		AuthorizationArtifact: c.Query("code"),
		Platform:              platform,
	})
	if err != nil {
		kind := ErrorKind(err)
		slog.Info("account linking failed", "platform", platform, "kind", kind, "error", err.Error())
		return c.Redirect(h.dashboardURL("error", kind), fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(h.dashboardURL("linked", platform), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.as.List(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) dashboardURL(key, value string) string {
	return fmt.Sprintf("%s/dashboard/accounts?%s=%s", h.cfg.FrontendURL, key, url.QueryEscape(value))
}
