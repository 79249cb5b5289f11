package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for the transport layer.
type ErrorKind string

const (
	KindValidation         ErrorKind = "VALIDATION"
	KindUnauthenticated    ErrorKind = "UNAUTHENTICATED"
	KindForbidden          ErrorKind = "FORBIDDEN"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindStateConflict      ErrorKind = "STATE_CONFLICT"
	KindCausalityConflict  ErrorKind = "CAUSALITY_CONFLICT"
	KindInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so that sentinel comparisons survive
// re-creation with a more specific message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given code
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewStateConflictError creates an error for a disallowed status transition
func NewStateConflictError(code, message string) *DomainError {
	return NewDomainError(KindStateConflict, code, message)
}

// NewInvariantViolationError creates an error for a broken numeric invariant
func NewInvariantViolationError(code, message string) *DomainError {
	return NewDomainError(KindInvariantViolation, code, message)
}

// KindOf returns the kind of err, or an empty kind when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewValidationError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrEmptyDetails      = NewValidationError("EMPTY_DETAILS", "At least one detail line is required")
	ErrDuplicateProduct  = NewValidationError("DUPLICATE_PRODUCT", "Product appears more than once")
	ErrUnauthenticated   = NewDomainError(KindUnauthenticated, "UNAUTHENTICATED", "Authentication required")
	ErrAdminOnly         = NewDomainError(KindForbidden, "ADMIN_ONLY", "Only an administrator can perform this action")
	ErrInvalidTransition = NewStateConflictError("INVALID_TRANSITION", "Operation not allowed in current status")
	ErrCausalityConflict = NewDomainError(KindCausalityConflict, "CAUSALITY_CONFLICT",
		"A later transaction depends on the affected products")
	ErrInsufficientStock = NewInvariantViolationError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOverApplied       = NewInvariantViolationError("RECEIVABLES_OVER_APPLIED", "Applied receivables exceed supplier receivables")
	ErrReceivablesLimit  = NewInvariantViolationError("RECEIVABLES_LIMIT_EXCEEDED", "Supplier receivables would exceed the limit")
	ErrOverpayment       = NewInvariantViolationError("OVERPAYMENT", "Paid amount exceeds grand total")
	ErrOverReturn        = NewInvariantViolationError("OVER_RETURN", "Returned quantity exceeds ordered quantity")
	ErrNegativeCost      = NewInvariantViolationError("NEGATIVE_COST", "Cost reversal would produce a negative valuation")
)
