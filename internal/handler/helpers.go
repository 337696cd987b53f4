package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func invalidBody(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
}

// handleError maps service errors onto status codes. Anything unrecognised is a
// store failure and is surfaced with its wrapped message.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrSignInRequired):
		return utils.SendRedirectError(c, fiber.StatusUnauthorized, middleware.NoticeLoginRequired, middleware.LandingFromContext(c))
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownGrid), errors.Is(err, service.ErrInvalidSpeaker):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrCodeNotFound),
		errors.Is(err, service.ErrUnknownWorkflow),
		errors.Is(err, service.ErrUnknownSlot),
		errors.Is(err, service.ErrUnknownFeature):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyLinked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRowSelectionRequired),
		errors.Is(err, service.ErrInvalidRow),
		errors.Is(err, service.ErrMinimumRows),
		errors.Is(err, service.ErrConversationRequired),
		errors.Is(err, service.ErrProbingQuestionRequired):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrImportTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImportTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg("failed to " + action)
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
}
