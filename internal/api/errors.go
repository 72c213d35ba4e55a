package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danniel-isiah-libor/talos-io/internal/api/shared"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/service/auth"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidAccessKey):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrTaskExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyTaskID),
		errors.Is(err, domain.ErrEmptyProfile),
		errors.Is(err, domain.ErrEmptySku),
		errors.Is(err, domain.ErrNoSizes),
		errors.Is(err, domain.ErrInvalidDelay),
		errors.Is(err, domain.ErrInvalidTimeOfDay):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidAccessKey):
		return "Invalid access key"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrTaskExists):
		return "Task already exists"

	case errors.Is(err, domain.ErrEmptyProfile):
		return "Profile credentials are required"

	case errors.Is(err, domain.ErrEmptySku):
		return "SKU is required"

	case errors.Is(err, domain.ErrNoSizes):
		return "At least one size is required"

	case errors.Is(err, domain.ErrInvalidDelay):
		return "Retry delay must be positive"

	case errors.Is(err, domain.ErrInvalidTimeOfDay):
		return "Scheduled time must be HH:mm:ss"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps an error to its status code and safe message and writes
// the response. An explicit userMessage overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.AccessKey' Error:Field validation
	// for 'AccessKey' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "url":
		return "invalid URL"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
