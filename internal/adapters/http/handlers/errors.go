package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// handleServiceError maps service errors onto API responses. Unknown errors
// are logged and answered with the fallback message.
func handleServiceError(c *fiber.Ctx, err error, fallback string) error {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation):
		return response.BadRequest(c, validation.Message)
	case errors.Is(err, domain.ErrInvalidLoanStatus),
		errors.Is(err, domain.ErrWrongPassword):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrSessionInvalid):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrMaturityDateRequired),
		errors.Is(err, domain.ErrCannotDisableSelf):
		return response.UnprocessableEntity(c, err.Error())
	default:
		slog.Error("❌ "+fallback,
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
		)
		return response.InternalServerError(c, fallback)
	}
}

// parseID reads a positive numeric path parameter
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
