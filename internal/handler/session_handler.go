package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// SessionHandler exposes the signed-in session endpoints.
type SessionHandler struct {
	sessions service.SessionService
	registry service.UserRegistryService
	logger   zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions service.SessionService, registry service.UserRegistryService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		registry: registry,
		logger:   logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches routes. linkGuards run before code redemption.
func (h *SessionHandler) Register(router fiber.Router, linkGuards ...fiber.Handler) {
	router.Get("", h.describe)
	router.Post("/logout", h.logout)

	link := append(append([]fiber.Handler{}, linkGuards...), h.link)
	router.Post("/link", link...)
}

func (h *SessionHandler) describe(c *fiber.Ctx) error {
	session, err := h.sessions.Describe(c.UserContext(), middleware.IdentityFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "describe session")
	}
	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *SessionHandler) logout(c *fiber.Ctx) error {
	token, expiresAt := middleware.TokenFromContext(c)
	if err := h.sessions.Logout(c.UserContext(), token, expiresAt); err != nil {
		return handleError(c, h.logger, err, "sign out")
	}
	return utils.SendSuccess(c, "signed out", fiber.Map{"redirect": middleware.LandingFromContext(c)})
}

func (h *SessionHandler) link(c *fiber.Ctx) error {
	var payload dto.LinkCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.registry.Redeem(c.UserContext(), middleware.IdentityFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "redeem linking code")
	}
	return utils.SendSuccess(c, "account linked", user)
}
