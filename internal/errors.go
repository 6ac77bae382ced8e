package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"

	ErrCodeInvalidCredentials      ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken            ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired            ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingCredentials      ErrorCode = "MISSING_CREDENTIALS"
	ErrCodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrCodeUserInactive            ErrorCode = "USER_INACTIVE"
	ErrCodeNotSuperuser            ErrorCode = "NOT_SUPERUSER"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeGroupNotFound      ErrorCode = "GROUP_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"

	ErrCodeUsernameTaken    ErrorCode = "USERNAME_TAKEN"
	ErrCodeEmailTaken       ErrorCode = "EMAIL_TAKEN"
	ErrCodeGroupExists      ErrorCode = "GROUP_EXISTS"
	ErrCodePermissionExists ErrorCode = "PERMISSION_EXISTS"
	ErrCodeGroupHasUsers    ErrorCode = "GROUP_HAS_USERS"
	ErrCodePermissionInUse  ErrorCode = "PERMISSION_IN_USE"
	ErrCodeReservedName     ErrorCode = "RESERVED_NAME"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	// A bad username and a bad password surface as the same error to avoid
	// user enumeration.
	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)

	ErrInvalidToken            = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired            = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrMissingCredentials      = NewUnauthorizedError("Missing credentials", ErrCodeMissingCredentials)
	ErrInsufficientPermissions = NewUnauthorizedError("Insufficient permissions", ErrCodeInsufficientPermissions)
	ErrUserInactive            = NewForbiddenError("User account is deactivated", ErrCodeUserInactive)
	ErrNotSuperuser            = NewUnauthorizedError("User is not in the administrators group", ErrCodeNotSuperuser)

	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrGroupNotFound      = NewNotFoundError("Group not found", ErrCodeGroupNotFound)
	ErrPermissionNotFound = NewNotFoundError("Permission not found", ErrCodePermissionNotFound)

	ErrPasswordMismatch = &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodePasswordMismatch,
		Message:    "Passwords do not match",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrUsernameTaken    = NewConflictError("Username already registered", ErrCodeUsernameTaken)
	ErrEmailTaken       = NewConflictError("Email already registered", ErrCodeEmailTaken)
	ErrGroupExists      = NewConflictError("Group already exists", ErrCodeGroupExists)
	ErrPermissionExists = NewConflictError("Permission already exists", ErrCodePermissionExists)
	ErrGroupHasUsers    = NewConflictError("Group still has linked users", ErrCodeGroupHasUsers)
	ErrPermissionInUse  = NewConflictError("Permission is still linked to a group", ErrCodePermissionInUse)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
