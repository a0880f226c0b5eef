package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInitialsTooLong    = "INITIALS_TOO_LONG"
	ErrCodeTooManyRequested   = "TOO_MANY_REQUESTED"
	ErrCodeExportWriteFailure = "EXPORT_WRITE_FAILURE"
	ErrCodeSourceExhausted    = "SOURCE_EXHAUSTED_UNEXPECTEDLY"
	ErrCodeRunNotFound        = "RUN_NOT_FOUND"
	ErrCodePersistenceOff     = "PERSISTENCE_DISABLED"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a domain error with the same code, so detailed
// errors built by the constructors below still match the sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidRequest     = NewDomainError(ErrCodeInvalidRequest, "Invalid generation request")
	ErrInitialsTooLong    = NewDomainError(ErrCodeInitialsTooLong, "Initials cannot be longer than the total coupon length")
	ErrTooManyRequested   = NewDomainError(ErrCodeTooManyRequested, "Requested count exceeds the number of possible unique coupons")
	ErrExportWriteFailure = NewDomainError(ErrCodeExportWriteFailure, "Failed to write coupon export")
	ErrSourceExhausted    = NewDomainError(ErrCodeSourceExhausted, "Coupon source ended before the requested count was reached")
	ErrRunNotFound        = NewDomainError(ErrCodeRunNotFound, "Generation run not found")
	ErrPersistenceOff     = NewDomainError(ErrCodePersistenceOff, "Run persistence is not enabled")
)

// NewInitialsTooLongError reports the offending lengths.
func NewInitialsTooLongError(initialsLen, totalLen int) *DomainError {
	return NewDomainError(ErrCodeInitialsTooLong,
		fmt.Sprintf("Initials length (%d) cannot be greater than the total coupon length (%d)", initialsLen, totalLen))
}

// NewTooManyRequestedError reports the requested count against the available space.
func NewTooManyRequestedError(requested int, available string) *DomainError {
	return NewDomainError(ErrCodeTooManyRequested,
		fmt.Sprintf("Cannot generate %d unique coupons with the given length and character set. Maximum possible is %s", requested, available))
}

// NewInvalidRequestError wraps a request validation message.
func NewInvalidRequestError(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidRequest, message)
}

// NewSourceExhaustedError reports how many codes were produced against the target.
func NewSourceExhaustedError(produced, requested int) *DomainError {
	return NewDomainError(ErrCodeSourceExhausted,
		fmt.Sprintf("Coupon source produced %d codes, expected %d", produced, requested))
}

// ExportError wraps a sink failure so callers can match ErrExportWriteFailure
// while keeping the underlying cause.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() []error {
	return []error{ErrExportWriteFailure, e.Err}
}
