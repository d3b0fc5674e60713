package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"research-assistant-be/pkg/apperr"
)

// StatusFor maps an error to the HTTP status the API reports for it.
func StatusFor(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindGenerationUnavailable:
		return fiber.StatusServiceUnavailable
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindBusy:
		return fiber.StatusLocked
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
// Internal failures keep their detail out of the response body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		body := ErrorResponse(code, err.Error())
		if kind := apperr.KindOf(err); kind != "" {
			body.Kind = string(kind)
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			body.Message = "Validation failed"
			body.Kind = string(apperr.KindValidation)
			body.Errors = ve.Fields
		}
		if code == fiber.StatusInternalServerError {
			body.Message = "Internal server error"
		}

		return ctx.Status(code).JSON(body)
	}
}
