package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

// Notices returned by the identity gate.
const (
	NoticeLoginRequired = "login required"
	NoticeAdminOnly     = "admin access only"
	NoticePageDisabled  = "page disabled"
)

// Context locals populated by Authenticate.
const (
	LocalUserID    = "user_id"
	LocalUserName  = "user_name"
	LocalUserEmail = "user_email"
	LocalToken     = "token"
	LocalTokenExp  = "token_exp"
	LocalLanding   = "landing_path"
)

// RevocationChecker reports whether a token was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthConfig configures Authenticate.
type AuthConfig struct {
	Secret   string
	Revoked  RevocationChecker
	Redirect string
	Logger   zerolog.Logger
}

// Authenticate validates the bearer token and stores the identity in the request locals.
// Tokens must carry exp so a sign-out can be bounded by it.
func Authenticate(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalLanding, cfg.Redirect)
		deny := func() error {
			return utils.SendRedirectError(c, fiber.StatusUnauthorized, NoticeLoginRequired, cfg.Redirect)
		}

		authorization := c.Get("Authorization")
		if authorization == "" {
			return deny()
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return deny()
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return deny()
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.Secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return deny()
		}

		subject, err := claims.GetSubject()
		if err != nil || strings.TrimSpace(subject) == "" {
			return deny()
		}

		if cfg.Revoked != nil {
			revoked, err := cfg.Revoked.IsRevoked(c.UserContext(), tokenString)
			if err != nil {
				cfg.Logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("token revocation lookup failed")
				return utils.SendError(c, fiber.StatusInternalServerError, "session check failed")
			}
			if revoked {
				return deny()
			}
		}

		c.Locals(LocalUserID, strings.TrimSpace(subject))
		c.Locals(LocalUserName, stringClaim(claims, "name"))
		c.Locals(LocalUserEmail, stringClaim(claims, "email"))
		c.Locals(LocalToken, tokenString)
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.Locals(LocalTokenExp, exp.Time)
		}

		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(c *fiber.Ctx) service.Identity {
	return service.Identity{
		UID:         localString(c, LocalUserID),
		DisplayName: localString(c, LocalUserName),
		Email:       localString(c, LocalUserEmail),
	}
}

// LandingFromContext returns the page unauthenticated clients are sent to.
func LandingFromContext(c *fiber.Ctx) string {
	return localString(c, LocalLanding)
}

// TokenFromContext returns the raw bearer token and its expiry.
func TokenFromContext(c *fiber.Ctx) (string, time.Time) {
	token := localString(c, LocalToken)
	var expiresAt time.Time
	if value, ok := c.Locals(LocalTokenExp).(time.Time); ok {
		expiresAt = value
	}
	return token, expiresAt
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func localString(c *fiber.Ctx, key string) string {
	if value, ok := c.Locals(key).(string); ok {
		return value
	}
	return ""
}
