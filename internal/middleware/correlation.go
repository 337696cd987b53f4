package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/probing-go-api/internal/observability"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	localCorrelationID  = "correlation_id"
)

// CorrelationID accepts the caller's X-Correlation-ID (or X-Request-ID), minting one when absent,
// and binds it to the user context so services can tag their logs.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get(headerCorrelationID))
		if incoming == "" {
			incoming = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals(localCorrelationID, incoming)
		c.Set(headerCorrelationID, incoming)
		c.SetUserContext(observability.ContextWithCorrelation(c.UserContext(), incoming))

		return c.Next()
	}
}

// GetCorrelationID returns the correlation id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(localCorrelationID).(string); ok {
		return id
	}
	return observability.CorrelationIDFromContext(c.UserContext())
}
