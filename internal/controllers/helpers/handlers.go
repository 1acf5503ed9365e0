package helpers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type ErrorRes struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler is the fiber error handler for the web API. It logs every
// error with request context and, outside of fiber-typed errors, hides the
// detail behind an opaque message in production.
func ErrorHandler(c *fiber.Ctx, err error, logger *zerolog.Logger, isProduction bool) error {
	code := fiber.StatusInternalServerError

	e, fiberTypeErr := err.(*fiber.Error)
	if fiberTypeErr {
		code = e.Code
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	logger.Err(err).Str("httpStatusCode", strconv.Itoa(code)).
		Str("httpMethod", c.Method()).
		Str("httpPath", c.Path()).
		Msg("caught an error from http request")

	if !fiberTypeErr && isProduction {
		err = fiber.NewError(fiber.StatusInternalServerError, "Internal error")
	}

	return c.Status(code).JSON(ErrorRes{
		Code:    code,
		Message: err.Error(),
	})
}
