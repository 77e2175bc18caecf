package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/social-link-api/internal/api/handlers"
)

// NewConfig returns the fiber settings for the API. Request values are
// copied out of fasthttp's buffers because handshake records outlive the
// request that created them.
func NewConfig() fiber.Config {
	return fiber.Config{
		Immutable:    true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: handlers.ErrorHandler,
	}
}

type Handlers struct {
	Handshake *handlers.HandshakeHandler
	Platform  *handlers.PlatformHandler
	Profile   *handlers.ProfileHandler
}

// RegisterRoutes mounts the linking API. auth guards every route that acts
// on behalf of a signed-in user; the completion routes are authorized by the
// state token alone.
func RegisterRoutes(app *fiber.App, h Handlers, auth fiber.Handler) {
	app.Get("/healthz", handlers.Healthz)

	app.Post("/handshake/initiate", auth, h.Handshake.Initiate)
	app.Get("/handshake/complete", h.Handshake.Complete)
	app.Post("/handshake/complete", h.Handshake.Complete)

	app.Get("/auth/:platform", auth, h.Platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", h.Platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(auth)

	api.Post("/profiles", h.Profile.CreateProfile)
	api.Get("/profiles/:id", h.Profile.GetProfile)
	api.Get("/profiles/:id/accounts", h.Platform.ListSocialAccounts)
}
