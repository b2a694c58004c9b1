package apiErrors

import (
	"fmt"
	"net/http"

	"github.com/lexhub/caseflow/src/internal/gateway"
)

type ErrorCode string

const (
	NotFound           ErrorCode = "NOT_FOUND"
	PermissionDenied   ErrorCode = "PERMISSION_DENIED"
	NetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE"
	ValidationFailed   ErrorCode = "VALIDATION_FAILED"
	Unauthorized       ErrorCode = "UNAUTHORIZED"
	InternalError      ErrorCode = "INTERNAL_ERROR"
)

type APIError struct {
	Code    ErrorCode
	Message string
}

func (e APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// FromFailure maps a gateway failure kind onto an API error code and
// HTTP status.
func FromFailure(f *gateway.Failure) (int, APIError) {
	switch f.Kind {
	case gateway.KindNotFound:
		return http.StatusNotFound, APIError{Code: NotFound, Message: f.Message}
	case gateway.KindPermissionDenied:
		return http.StatusForbidden, APIError{Code: PermissionDenied, Message: f.Message}
	case gateway.KindValidationFailed:
		return http.StatusUnprocessableEntity, APIError{Code: ValidationFailed, Message: f.Message}
	case gateway.KindNetworkUnavailable:
		return http.StatusBadGateway, APIError{Code: NetworkUnavailable, Message: f.Message}
	default:
		return http.StatusInternalServerError, APIError{Code: InternalError, Message: f.Message}
	}
}
