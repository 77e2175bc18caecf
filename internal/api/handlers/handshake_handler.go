package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/maheshrc27/social-link-api/internal/service"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

type HandshakeHandler struct {
	linker
}

func NewHandshakeHandler(hs service.HandshakeService, as service.AttachmentService) *HandshakeHandler {
	return &HandshakeHandler{
		linker: linker{hs: hs, as: as},
	}
}

func (h *HandshakeHandler) Initiate(c *fiber.Ctx) error {
	var req transfer.InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}

	profileID := fiberutils.CopyString(req.ProfileID)
	platform := fiberutils.CopyString(req.Provider)

	res, err := h.hs.Initiate(c.Context(), profileID, platform)
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("authorization url issued", "user_id", GetUserID(c), "platform", platform)
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Complete accepts the state token and authorization artifact either as a
// query string or as a JSON or form body.
func (h *HandshakeHandler) Complete(c *fiber.Ctx) error {
	var req transfer.CompleteRequest
	if c.Method() == fiber.MethodGet {
		if err := c.QueryParser(&req); err != nil {
			slog.Info(err.Error())
			return badRequest(c, "Invalid query")
		}
	} else if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}

	if req.StateToken == "" {
		return writeError(c, service.ErrStateNotFound)
	}

	res, err := h.link(c.Context(), transfer.CompleteInput{
		StateToken:            req.StateToken,
		AuthorizationArtifact: req.AuthorizationArtifact,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}
