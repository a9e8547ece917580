package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps a controller error against the package's sentinel
// set. Controllers wrap their sentinels, so errors.Is sees through the
// message decoration.
func statusForError(err error, validation, notFound, conflict, forbidden error) int {
	switch {
	case errors.Is(err, validation):
		return fiber.StatusBadRequest
	case errors.Is(err, notFound):
		return fiber.StatusNotFound
	case errors.Is(err, conflict):
		return fiber.StatusConflict
	case errors.Is(err, forbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, status int, err error) error {
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
