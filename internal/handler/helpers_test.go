package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/service"
	"github.com/noah-isme/probing-go-api/internal/utils"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	validationErr := validator.New().Var("", "required")

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"sign in", service.ErrSignInRequired, fiber.StatusUnauthorized},
		{"validation", validationErr, fiber.StatusBadRequest},
		{"unknown grid", service.ErrUnknownGrid, fiber.StatusBadRequest},
		{"missing user", service.ErrUserNotFound, fiber.StatusNotFound},
		{"wrapped missing submission", fmt.Errorf("load: %w", service.ErrSubmissionNotFound), fiber.StatusNotFound},
		{"unknown slot", service.ErrUnknownSlot, fiber.StatusNotFound},
		{"already linked", service.ErrAlreadyLinked, fiber.StatusConflict},
		{"minimum rows", service.ErrMinimumRows, fiber.StatusUnprocessableEntity},
		{"conversation required", service.ErrConversationRequired, fiber.StatusUnprocessableEntity},
		{"too large", service.ErrImportTooLarge, fiber.StatusRequestEntityTooLarge},
		{"wrong type", service.ErrImportTypeNotAllowed, fiber.StatusUnsupportedMediaType},
		{"store failure", errors.New("save submission: disk full"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				c.Locals(middleware.LocalLanding, "/index.html")
				return handleError(c, zerolog.Nop(), tc.err, "test")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload utils.APIResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.False(t, payload.Success)
			if tc.status == fiber.StatusUnauthorized {
				require.Equal(t, middleware.NoticeLoginRequired, payload.Message)
				require.Equal(t, "/index.html", payload.Redirect)
				return
			}
			require.Equal(t, tc.err.Error(), payload.Message)
		})
	}
}
