package serverutils

import (
	"errors"

	"ai-collab-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the shared JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		status := StatusFor(err)
		res := ErrorResponse(status, err.Error())
		res.Error = apperror.Code(err)
		return ctx.Status(status).JSON(res)
	}
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch apperror.Code(err) {
	case apperror.CodeInvalidRoom, apperror.CodeBadRequest, apperror.CodeBadFrame, apperror.CodeUnsupportedEvent:
		return fiber.StatusBadRequest
	case apperror.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case apperror.CodeNotFound:
		return fiber.StatusNotFound
	case apperror.CodeGenerationFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
