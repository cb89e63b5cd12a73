package domain

import (
	"errors"
	"strings"
)

// ErrorCode is the machine-readable error identifier. The prefix is the
// category the Is*Error helpers test.
type ErrorCode string

const (
	// AUTH_*
	ErrorCodeAuthMissing       ErrorCode = "AUTH_MISSING"
	ErrorCodeAuthForbidden     ErrorCode = "AUTH_FORBIDDEN"
	ErrorCodeAuthForbiddenRole ErrorCode = "AUTH_FORBIDDEN_ROLE"
	ErrorCodeSessionRequired   ErrorCode = "AUTH_SESSION_REQUIRED"

	// lookups
	ErrorCodePaymentNotFound   ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeAdminUserNotFound ErrorCode = "ADMIN_USER_NOT_FOUND"
	ErrorCodeAdminUserExists   ErrorCode = "ADMIN_USER_EXISTS"

	// VALIDATION_*
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeInvalidRole            ErrorCode = "VALIDATION_INVALID_ROLE"
	ErrorCodeCustomRangeRequired    ErrorCode = "VALIDATION_CUSTOM_RANGE_REQUIRED"
	ErrorCodeInvalidDate            ErrorCode = "VALIDATION_INVALID_DATE"
	ErrorCodeInvalidRefundAmount    ErrorCode = "VALIDATION_INVALID_REFUND_AMOUNT"
	ErrorCodeInvalidRefundPercent   ErrorCode = "VALIDATION_INVALID_REFUND_PERCENT"

	// PROVIDER_*
	ErrorCodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrorCodeProviderAuthFailed    ErrorCode = "PROVIDER_AUTH_FAILED"

	// INTERNAL_*
	ErrorCodeDatabaseError       ErrorCode = "INTERNAL_DATABASE_ERROR"
	ErrorCodeDatabaseUnavailable ErrorCode = "INTERNAL_DATABASE_UNAVAILABLE"
)

// DomainError carries a stable code for HTTP mapping plus the wrapped cause
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *DomainError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is compares codes only, so the package sentinels match wrapped copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithDetail sets key on e and returns e. Do not call it on a sentinel.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// GetErrorCode returns the outermost DomainError code in err's chain, or ""
func GetErrorCode(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsDomainError(err error, code ErrorCode) bool {
	return code != "" && GetErrorCode(err) == code
}

// IsNotFoundError matches every *_NOT_FOUND code
func IsNotFoundError(err error) bool {
	return strings.HasSuffix(string(GetErrorCode(err)), "_NOT_FOUND")
}

// IsAuthError matches every AUTH_* code
func IsAuthError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "AUTH_")
}

// IsValidationError matches every VALIDATION_* code
func IsValidationError(err error) bool {
	return strings.HasPrefix(string(GetErrorCode(err)), "VALIDATION_")
}

// IsUnavailableError reports whether the database could not be reached at all
func IsUnavailableError(err error) bool {
	return GetErrorCode(err) == ErrorCodeDatabaseUnavailable
}

var (
	ErrAuthMissing       = NewDomainError(ErrorCodeAuthMissing, "authentication required")
	ErrAuthForbidden     = NewDomainError(ErrorCodeAuthForbidden, "forbidden")
	ErrAuthForbiddenRole = NewDomainError(ErrorCodeAuthForbiddenRole, "forbidden - insufficient privileges")
	ErrSessionRequired   = NewDomainError(ErrorCodeSessionRequired, "site admin session required")

	ErrPaymentNotFound   = NewDomainError(ErrorCodePaymentNotFound, "payment not found")
	ErrOrderNotFound     = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrAdminUserNotFound = NewDomainError(ErrorCodeAdminUserNotFound, "admin user not found")
	ErrAdminUserExists   = NewDomainError(ErrorCodeAdminUserExists, "admin user already exists")

	ErrMissingUserFields    = NewDomainError(ErrorCodeValidationMissingField, "username, password and role required")
	ErrInvalidRole          = NewDomainError(ErrorCodeInvalidRole, "invalid role; must be CEO, Chairman or CFO")
	ErrCustomRangeRequired  = NewDomainError(ErrorCodeCustomRangeRequired, "custom duration requires from and to")
	ErrInvalidDate          = NewDomainError(ErrorCodeInvalidDate, "Expected YYYY-MM-DD")
	ErrInvalidRefundAmount  = NewDomainError(ErrorCodeInvalidRefundAmount, "refund amount must be a positive number")
	ErrInvalidRefundPercent = NewDomainError(ErrorCodeInvalidRefundPercent, "refund percent must be within (0, 100]")

	ErrProviderNotConfigured = NewDomainError(ErrorCodeProviderNotConfigured, "PayPal integration not configured on server")

	ErrDatabaseUnavailable = NewDomainError(ErrorCodeDatabaseUnavailable, "The database is temporarily unavailable. Please try again shortly.")
)
