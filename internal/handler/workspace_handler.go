package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// WorkspaceHandler exposes the slot grids of the submission workflows.
type WorkspaceHandler struct {
	workspace service.WorkspaceService
	logger    zerolog.Logger
}

// NewWorkspaceHandler constructs the handler.
func NewWorkspaceHandler(workspace service.WorkspaceService, logger zerolog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspace: workspace,
		logger:    logger.With().Str("component", "workspace_handler").Logger(),
	}
}

// Register mounts one workflow under /workflows/<category>/slots/:slot behind guards.
func (h *WorkspaceHandler) Register(router fiber.Router, workflow service.Workflow, guards ...fiber.Handler) {
	group := router.Group("/workflows/"+workflow.Category+"/slots/:slot", guards...)

	group.Get("", h.get(workflow))
	group.Put("", h.replace(workflow))
	group.Post("/rows", h.addRow(workflow))
	group.Post("/rows/select", h.selectRow(workflow))
	group.Delete("/rows", h.removeRow(workflow))
	group.Post("/submit", h.submit(workflow))
	group.Get("/history", h.history(workflow))
	group.Post("/history/:id/load", h.loadPrevious(workflow))
}

func (h *WorkspaceHandler) get(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		workspace, err := h.workspace.Get(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"))
		if err != nil {
			return handleError(c, h.logger, err, "load workspace")
		}
		return utils.SendSuccess(c, "workspace retrieved", workspace)
	}
}

func (h *WorkspaceHandler) replace(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload dto.WorkspaceUpdateRequest
		if err := c.BodyParser(&payload); err != nil {
			return invalidBody(c)
		}

		workspace, err := h.workspace.Replace(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"), payload)
		if err != nil {
			return handleError(c, h.logger, err, "save workspace")
		}
		return utils.SendSuccess(c, "workspace saved", workspace)
	}
}

func (h *WorkspaceHandler) addRow(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload dto.RowAddRequest
		if err := c.BodyParser(&payload); err != nil {
			return invalidBody(c)
		}

		workspace, err := h.workspace.AddRow(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"), payload)
		if err != nil {
			return handleError(c, h.logger, err, "add row")
		}
		return utils.SendSuccess(c, "row added", workspace)
	}
}

func (h *WorkspaceHandler) selectRow(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload dto.RowSelectRequest
		if err := c.BodyParser(&payload); err != nil {
			return invalidBody(c)
		}

		workspace, err := h.workspace.SelectRow(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"), payload)
		if err != nil {
			return handleError(c, h.logger, err, "select row")
		}
		return utils.SendSuccess(c, "row selected", workspace)
	}
}

func (h *WorkspaceHandler) removeRow(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload dto.RowRemoveRequest
		if err := c.BodyParser(&payload); err != nil {
			return invalidBody(c)
		}

		workspace, err := h.workspace.RemoveRow(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"), payload)
		if err != nil {
			return handleError(c, h.logger, err, "remove row")
		}
		return utils.SendSuccess(c, "row removed", workspace)
	}
}

func (h *WorkspaceHandler) submit(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		submission, err := h.workspace.Submit(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"))
		if errors.Is(err, service.ErrDraftNotCleared) {
			return utils.SendSuccessWithStatus(c, fiber.StatusCreated, service.ErrDraftNotCleared.Error(), submission)
		}
		if err != nil {
			return handleError(c, h.logger, err, "save submission")
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission saved", submission)
	}
}

func (h *WorkspaceHandler) history(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		previews, err := h.workspace.History(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"))
		if err != nil {
			return handleError(c, h.logger, err, "load submissions")
		}
		return utils.SendSuccess(c, "submissions retrieved", previews)
	}
}

func (h *WorkspaceHandler) loadPrevious(workflow service.Workflow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		workspace, err := h.workspace.LoadPrevious(c.UserContext(), middleware.IdentityFromContext(c), workflow, c.Params("slot"), c.Params("id"))
		if err != nil {
			return handleError(c, h.logger, err, "load submission")
		}
		return utils.SendSuccess(c, "submission loaded", workspace)
	}
}
