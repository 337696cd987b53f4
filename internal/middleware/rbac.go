package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/probing-go-api/internal/utils"
)

// AdminChecker reports whether a uid is on the administrator allow-list.
type AdminChecker interface {
	IsAdmin(uid string) bool
}

// RequireAdmin short-circuits with 403 unless the authenticated uid is an administrator.
func RequireAdmin(admins AdminChecker, redirect string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := localString(c, LocalUserID)
		if uid == "" {
			return utils.SendRedirectError(c, fiber.StatusUnauthorized, NoticeLoginRequired, redirect)
		}
		if !admins.IsAdmin(uid) {
			return utils.SendRedirectError(c, fiber.StatusForbidden, NoticeAdminOnly, redirect)
		}
		return c.Next()
	}
}
