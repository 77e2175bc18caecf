package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/maheshrc27/social-link-api/internal/service"
)

type ProfileHandler struct {
	ps service.ProfileService
}

func NewProfileHandler(ps service.ProfileService) *ProfileHandler {
	return &ProfileHandler{ps: ps}
}

type createProfileRequest struct {
	Name string `json:"name" form:"name"`
}

func (h *ProfileHandler) CreateProfile(c *fiber.Ctx) error {
	var req createProfileRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}

	profile, err := h.ps.Create(c.Context(), fiberutils.CopyString(req.Name))
	if err != nil {
		return writeError(c, err)
	}

	slog.Info("profile created", "user_id", GetUserID(c), "profile_id", profile.ID)
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.ps.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func Healthz(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
