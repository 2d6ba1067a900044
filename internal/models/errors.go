package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	ErrorMessage string `json:"errorMessage"`
	Code         string `json:"code,omitempty"`
	Details      string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code so callers can use errors.Is with the
// sentinel values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &AppError{Code: CodeValidation}
	ErrNotFound           = &AppError{Code: CodeNotFound}
	ErrDuplicateUsername  = &AppError{Code: CodeDuplicateUsername}
	ErrInvalidCredentials = &AppError{Code: CodeInvalidCredentials}
	ErrStorageUnavailable = &AppError{Code: CodeStorageUnavailable}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewUserNotFoundError reports a (appId, userId) pair that matches no user.
func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: "No user found",
		Err:     fmt.Errorf("user %q", userID),
	}
}

// NewFeedNotFoundError reports a feed id that matches no feed.
func NewFeedNotFoundError(feedID string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: "Feed id not exists",
		Err:     fmt.Errorf("feed %q", feedID),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewDuplicateUsernameError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateUsername,
		Message: "Username already exist",
		Err:     err,
	}
}

func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:    CodeInvalidCredentials,
		Message: "Incorrect credentials",
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeStorageUnavailable,
		Message: "Pass valid values",
		Err:     err,
	}
}

// StatusFor maps an error to the HTTP status the API reports for it.
// Unknown errors are treated as storage failures.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeDuplicateUsername, CodeInvalidCredentials:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			ErrorMessage: appErr.Message,
			Code:         appErr.Code,
		}
		// Driver errors stay in the logs.
		if appErr.Err != nil && appErr.Code == CodeValidation {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			ErrorMessage: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError responds using the status derived from err.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
