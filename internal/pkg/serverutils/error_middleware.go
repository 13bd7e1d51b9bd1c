package serverutils

import (
	"errors"

	"menu-lens-be/internal/progress"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// uniform JSON envelope. Domain sentinels map to their HTTP status, fiber
// errors keep their code, everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, progress.ErrSessionNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, progress.ErrSessionActive):
			code = fiber.StatusConflict
		case errors.Is(err, progress.ErrInvalidTransition):
			code = fiber.StatusConflict
		case errors.Is(err, progress.ErrStoreUnavailable):
			code = fiber.StatusServiceUnavailable
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
