package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/types"
)

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "notFound")
}

// CardSuccessResponse sends the result of a card write.
func CardSuccessResponse(c *fiber.Ctx, cardID string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "Success",
		"ok":         true,
		"callCardId": cardID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ServiceError converts a callcard service error into a CustomError with
// the matching status. op names the failed operation in the error type.
func ServiceError(err error, op string) *types.CustomError {
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	code, kind := fiber.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, callcard.ErrValidation):
		code, kind = fiber.StatusBadRequest, "validation"
	case errors.Is(err, callcard.ErrNotFound):
		code, kind = fiber.StatusNotFound, "notFound"
	case errors.Is(err, callcard.ErrOwnership):
		code, kind = fiber.StatusForbidden, "ownership"
	case errors.Is(err, callcard.ErrConfiguration):
		code, kind = fiber.StatusConflict, "configuration"
	}
	return &types.CustomError{Code: code, Message: err.Error(), Type: op + "." + kind}
}

// ServiceErrorResponse sends the response for a callcard service error.
func ServiceErrorResponse(c *fiber.Ctx, err error, op string) error {
	ce := ServiceError(err, op)
	return ErrorResponse(c, ce.Message, ce.Code, ce.Type)
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// CardResponseStruct defines the schema for card write responses
type CardResponseStruct struct {
	Message    string `json:"message"`
	Ok         bool   `json:"ok"`
	CallCardID string `json:"callCardId"`
	Timestamp  string `json:"timestamp"`
}
