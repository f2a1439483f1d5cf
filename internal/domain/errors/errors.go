package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrValidation         = errors.New("validation failed")
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrDeclined           = errors.New("account declined")
	ErrNotApproved        = errors.New("account not approved")
	ErrNotVerified        = errors.New("account not verified")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenAlreadyUsed   = errors.New("token already used")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrRateLimited        = errors.New("rate limited")
	ErrExternalDependency = errors.New("external dependency unavailable")

	// ErrTokenNotFound is returned when no unused token matches the presented code
	ErrTokenNotFound = fmt.Errorf("code not found: %w", ErrNotFound)
)

// Error codes returned to clients
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeRoleMismatch       = "ROLE_MISMATCH"
	CodePendingApproval    = "PENDING_APPROVAL"
	CodeDeclined           = "ACCOUNT_DECLINED"
	CodeNotApproved        = "NOT_APPROVED"
	CodeNotVerified        = "NOT_VERIFIED"
	CodeTokenNotFound      = "TOKEN_NOT_FOUND"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenAlreadyUsed   = "TOKEN_ALREADY_USED"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrBadRequest)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// ValidationError carries field-level validation failures
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a failure for field, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateKeyError reports a unique constraint violation on Field
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrAlreadyExists.Error()
	}
	return e.Field + " already exists"
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrAlreadyExists
}

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first matching sentinel wins.
var mappings = []mapping{
	{ErrValidation, http.StatusBadRequest, CodeValidation, "Validation failed."},
	{ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials."},
	{ErrAccountInactive, http.StatusForbidden, CodeAccountInactive, "Your account is inactive."},
	{ErrRoleMismatch, http.StatusForbidden, CodeRoleMismatch, "You do not have access with this role."},
	{ErrPendingApproval, http.StatusForbidden, CodePendingApproval, "Your account is pending admin approval."},
	{ErrDeclined, http.StatusForbidden, CodeDeclined, "Your account has been declined by admin."},
	{ErrNotApproved, http.StatusForbidden, CodeNotApproved, "Your account is not approved yet."},
	{ErrNotVerified, http.StatusForbidden, CodeNotVerified, "Account not verified. Please verify your email or phone."},
	{ErrTokenNotFound, http.StatusBadRequest, CodeTokenNotFound, "Invalid code."},
	{ErrTokenExpired, http.StatusBadRequest, CodeTokenExpired, "Code or token has expired."},
	{ErrTokenAlreadyUsed, http.StatusBadRequest, CodeTokenAlreadyUsed, "Code or token has already been used."},
	{ErrInvalidOTP, http.StatusBadRequest, CodeInvalidOTP, "Invalid OTP code."},
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "Resource not found."},
	{ErrAlreadyExists, http.StatusConflict, CodeConflict, "Resource already exists."},
	{ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "Too many requests. Please try again later."},
	{ErrForbidden, http.StatusForbidden, CodeForbidden, "Insufficient permissions."},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized."},
	{ErrBadRequest, http.StatusBadRequest, CodeBadRequest, "Bad request."},
	{ErrExternalDependency, http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable."},
}

// FromDomain converts any error into an AppError suitable for clients.
// Unknown errors become a generic internal error.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return NewAppError(m.status, m.code, m.message, err)
		}
	}
	return InternalError(err)
}
