package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"summatube/api-gateway/internal/apperr"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"error": message,
	})
}

// RespondWithAppError sends the status, message and code of a classified error.
// Generation failures only expose the generic message; the cause stays in the logs.
func RespondWithAppError(c *fiber.Ctx, err *apperr.Error) error {
	message := err.Public()
	if err.Kind == apperr.GenerationFailed {
		message = err.Kind.DefaultMessage()
	}
	return c.Status(err.Kind.HTTPStatus()).JSON(fiber.Map{
		"error": message,
		"code":  err.Kind.Code(),
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// ErrorHandler is the fiber error handler. Classified errors keep their status;
// anything else becomes a generic 500 without internal detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperr.As(err); ok {
		return RespondWithAppError(c, appErr)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return RespondWithError(c, fe.Code, fe.Message)
	}
	return RespondWithError(c, fiber.StatusInternalServerError, "An unexpected error occurred")
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var out []string
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out = append(out, err.Error())
		}
		return out
	}
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		out = append(out, element)
	}
	return out
}

// SanitizeInput trims surrounding whitespace.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
