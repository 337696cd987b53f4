package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// ReviewHandler exposes the results page and the admin moderation console.
type ReviewHandler struct {
	reviews service.ReviewService
	exports service.ExportService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(reviews service.ReviewService, exports service.ExportService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		exports: exports,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// RegisterResults attaches the participant-facing read routes.
func (h *ReviewHandler) RegisterResults(router fiber.Router) {
	router.Get("", h.list(service.AudienceResults))
	router.Get("/:id", h.detail(service.AudienceResults))
}

// RegisterAdmin attaches the moderation routes.
func (h *ReviewHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list(service.AudienceAdmin))
	router.Get("/labels", h.labels)
	router.Post("/export", h.export)
	router.Get("/:id", h.detail(service.AudienceAdmin))
	router.Delete("/:id", h.delete)
}

func (h *ReviewHandler) list(audience service.ReviewAudience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter dto.ReviewFilter
		if err := c.QueryParser(&filter); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
		}

		list, err := h.reviews.List(c.UserContext(), audience, filter)
		if err != nil {
			return handleError(c, h.logger, err, "load submissions")
		}
		return utils.SendSuccess(c, "submissions retrieved", list)
	}
}

func (h *ReviewHandler) labels(c *fiber.Ctx) error {
	labels, err := h.reviews.Labels(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "load labels")
	}
	return utils.SendSuccess(c, "labels retrieved", labels)
}

func (h *ReviewHandler) detail(audience service.ReviewAudience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := h.reviews.Detail(c.UserContext(), audience, c.Params("id"))
		if err != nil {
			return handleError(c, h.logger, err, "load submission")
		}
		return utils.SendSuccess(c, "submission retrieved", detail)
	}
}

func (h *ReviewHandler) delete(c *fiber.Ctx) error {
	result, err := h.reviews.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "delete submission")
	}
	return utils.SendSuccess(c, "submission deleted", result)
}

func (h *ReviewHandler) export(c *fiber.Ctx) error {
	result, err := h.exports.Export(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err, "export submissions")
	}

	if result.Response.URL != "" {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "export stored", result.Response)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+result.FileName+`"`)
	return c.Send(result.Content)
}
