package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// SettingsHandler exposes feature flag checks and the admin flag console.
type SettingsHandler struct {
	settings service.SettingsService
	gate     middleware.FeatureChecker
	logger   zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(settings service.SettingsService, gate middleware.FeatureChecker, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		gate:     gate,
		logger:   logger.With().Str("component", "settings_handler").Logger(),
	}
}

// RegisterFeatures attaches the per-page access check.
func (h *SettingsHandler) RegisterFeatures(router fiber.Router) {
	router.Get("/:flag", h.check)
}

// RegisterAdmin attaches the admin settings routes.
func (h *SettingsHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.get)
	router.Put("/:flag", h.update)
}

func (h *SettingsHandler) check(c *fiber.Ctx) error {
	flag := c.Params("flag")
	granted := h.gate.Check(c.UserContext(), middleware.IdentityFromContext(c), flag)
	response := dto.FeatureAccessResponse{Feature: flag, Granted: granted}
	if !granted {
		return c.Status(fiber.StatusForbidden).JSON(utils.APIResponse{
			Success:  false,
			Data:     response,
			Message:  middleware.NoticePageDisabled,
			Redirect: middleware.LandingFromContext(c),
		})
	}
	return utils.SendSuccess(c, "feature enabled", response)
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "load settings")
	}
	return utils.SendSuccess(c, "settings retrieved", settings)
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var payload dto.FeatureToggleRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}
	if payload.Enabled == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "enabled is required")
	}

	settings, err := h.settings.Update(c.UserContext(), c.Params("flag"), *payload.Enabled)
	if err != nil {
		return handleError(c, h.logger, err, "save settings")
	}
	return utils.SendSuccess(c, "settings saved", settings)
}
