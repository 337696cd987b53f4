package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// FeatureChecker decides whether an identity may use a gated feature.
type FeatureChecker interface {
	Check(ctx context.Context, identity service.Identity, flag string) bool
}

// RequireFeature evaluates the gate once per request and answers 403 when the flag is switched off.
func RequireFeature(gate FeatureChecker, flag, redirect string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if flag == "" {
			return c.Next()
		}
		if !gate.Check(c.UserContext(), IdentityFromContext(c), flag) {
			return utils.SendRedirectError(c, fiber.StatusForbidden, NoticePageDisabled, redirect)
		}
		return c.Next()
	}
}
