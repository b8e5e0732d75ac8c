package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
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
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidStatus     ErrorCode = "INVALID_STATUS"
	ErrCodeUnknownPermission ErrorCode = "UNKNOWN_PERMISSION"
	ErrCodeInvalidReference  ErrorCode = "INVALID_REFERENCE"

	ErrCodeTenantNotFound ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeTenantInactive ErrorCode = "TENANT_INACTIVE"

	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeChecklistNotFound ErrorCode = "CHECKLIST_NOT_FOUND"
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound      ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeRoleExists        ErrorCode = "ROLE_EXISTS"
	ErrCodeMenuNotFound      ErrorCode = "MENU_NOT_FOUND"
	ErrCodeMenuSelfParent    ErrorCode = "MENU_SELF_PARENT"
	ErrCodeMenuCycle         ErrorCode = "MENU_CYCLE"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError is the only error shape handlers put on the wire. StatusCode and
// Cause stay server side.
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

func newAppError(t ErrorType, status int, code ErrorCode, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: status}
}

func (e *AppError) Error() string {
	if ve, ok := e.Details.(ValidationErrors); ok && len(ve.Errors) > 0 {
		return ve.Errors[0].Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// DetailedMessage joins every field message of a validation error.
func (e *AppError) DetailedMessage() string {
	ve, ok := e.Details.(ValidationErrors)
	if !ok || len(ve.Errors) == 0 {
		if e.Cause != nil {
			return e.Error()
		}
		return e.Message
	}
	msgs := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on code so a decorated copy of a sentinel still satisfies
// errors.Is against it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code && t.Type == e.Type
}

// WithDetails returns a copy carrying details; the receiver is left alone.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType `json:"type"`
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
		Details any       `json:"details,omitempty"`
	}{e.Type, e.Code, e.Message, e.Details})
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// PermissionDetails names the capability a forbidden request was missing.
type PermissionDetails struct {
	Mode     string   `json:"mode"`
	Required []string `json:"required"`
	Missing  []string `json:"missing"`
}

type Response struct {
	Error *AppError `json:"error"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, code, message)
}

// NewValidationFieldError reports a single field; code lands on the field
// entry while the outer code stays VALIDATION_FAILED.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationError("Validation failed", ErrCodeValidationFailed).
		WithDetails(ValidationErrors{Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}}})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, code, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, code, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, code, message)
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, code, message)
}

func NewInternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeInternal, http.StatusInternalServerError, ErrCodeInternalError, message)
	e.Cause = cause
	return e
}

func NewTenantNotFoundError(ref string) *AppError {
	msg := "Tenant not found"
	if ref == "" {
		msg = "Tenant could not be resolved from the request"
	}
	return NewNotFoundError(msg, ErrCodeTenantNotFound).WithDetails(map[string]string{"reference": ref})
}

func NewTenantInactiveError(slug, status string) *AppError {
	return NewForbiddenError(fmt.Sprintf("Tenant %s is %s", slug, status), ErrCodeTenantInactive).
		WithDetails(map[string]string{"tenant": slug, "status": status})
}

func NewPermissionDeniedError(mode string, required, missing []string) *AppError {
	return NewForbiddenError("Missing permission: "+strings.Join(missing, ", "), ErrCodePermissionDenied).
		WithDetails(PermissionDetails{Mode: mode, Required: required, Missing: missing})
}

var (
	ErrChecklistNotFound = NewNotFoundError("Checklist not found", ErrCodeChecklistNotFound)
	ErrUserNotFound      = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrRoleNotFound      = NewNotFoundError("Role not found", ErrCodeRoleNotFound)
	ErrMenuNotFound      = NewNotFoundError("Menu not found", ErrCodeMenuNotFound)
	ErrRoleExists        = NewConflictError("Role already exists", ErrCodeRoleExists)

	ErrUnauthenticated    = NewUnauthorizedError("Authentication required", ErrCodeUnauthenticated)
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
