package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Exact validation messages of the execution endpoint contract.
const (
	msgInvalidExecuteInput = "Invalid input. Expected either a 'task' string or 'steps' array."
	msgNonStringSteps      = "All action steps must be strings."
)

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: message})
}

func internalError(c fiber.Ctx, message, details string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func credentialError(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}

// ErrorHandler is the app-level fallback for errors raised outside the
// pipeline handlers, such as unknown routes and panics recovered by fiber.
// Pipeline handlers never reach it; their error bodies are part of the
// endpoint contract.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	problem := problems.NewStatusProblem(code).
		WithInstance(c.Path()).
		WithDetail(err.Error())

	return c.Status(code).JSON(problem)
}
