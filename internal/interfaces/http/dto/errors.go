package dto

import (
	"net/http"

	"github.com/erp/tradeledger/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own code
// (e.g. INSUFFICIENT_STOCK) which is passed through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// KindHTTPStatus maps each domain error kind to its HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:         http.StatusBadRequest,
	shared.KindUnauthenticated:    http.StatusUnauthorized,
	shared.KindForbidden:          http.StatusForbidden,
	shared.KindStateConflict:      http.StatusForbidden,
	shared.KindNotFound:           http.StatusNotFound,
	shared.KindCausalityConflict:  http.StatusConflict,
	shared.KindInvariantViolation: http.StatusUnprocessableEntity,
}

// StatusForKind returns the HTTP status for a domain error kind.
// Unknown kinds are server errors.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
