package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// AdminUserHandler exposes the admin registry endpoints.
type AdminUserHandler struct {
	registry service.UserRegistryService
	logger   zerolog.Logger
}

// NewAdminUserHandler constructs the handler.
func NewAdminUserHandler(registry service.UserRegistryService, logger zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		registry: registry,
		logger:   logger.With().Str("component", "admin_user_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AdminUserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/import", h.importUsers)
	router.Delete("/:id", h.delete)
}

func (h *AdminUserHandler) list(c *fiber.Ctx) error {
	users, err := h.registry.List(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "list users")
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *AdminUserHandler) create(c *fiber.Ctx) error {
	var payload dto.RegistryUserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.registry.Add(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err, "add user")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user added", user)
}

func (h *AdminUserHandler) importUsers(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.registry.Import(c.UserContext(), file)
	if err != nil {
		return handleError(c, h.logger, err, "import users")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "users imported", result)
}

func (h *AdminUserHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.registry.Delete(c.UserContext(), id); err != nil {
		return handleError(c, h.logger, err, "delete user")
	}
	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}
