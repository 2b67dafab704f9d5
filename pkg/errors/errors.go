package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	// Booking-link taxonomy. The first three are terminal: the link no longer
	// works and retrying cannot help. The *_NOT_AVAILABLE and SLOT_CONFLICT
	// codes mean the caller should re-fetch slots and choose again.
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeLinkExpired         = "LINK_EXPIRED"
	CodeLinkInactive        = "LINK_INACTIVE"
	CodeDateNotAvailable    = "DATE_NOT_AVAILABLE"
	CodeSlotNotAvailable    = "SLOT_NOT_AVAILABLE"
	CodeSlotConflict        = "SLOT_CONFLICT"
	CodeMaxBookingsExceeded = "MAX_BOOKINGS_EXCEEDED"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Code:       CodeInvalidToken,
		Message:    "This booking link does not exist",
		HTTPStatus: http.StatusNotFound,
	}
}

func LinkExpired() *AppError {
	return &AppError{
		Code:       CodeLinkExpired,
		Message:    "This booking link has expired",
		HTTPStatus: http.StatusGone,
	}
}

func LinkInactive() *AppError {
	return &AppError{
		Code:       CodeLinkInactive,
		Message:    "This booking link has been deactivated",
		HTTPStatus: http.StatusGone,
	}
}

func DateNotAvailable(date string) *AppError {
	return &AppError{
		Code:       CodeDateNotAvailable,
		Message:    "The requested date is not available",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"date": date,
		},
	}
}

func SlotNotAvailable(date, slot string) *AppError {
	return &AppError{
		Code:       CodeSlotNotAvailable,
		Message:    "The requested time slot is no longer available",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"date": date,
			"slot": slot,
		},
	}
}

func SlotConflict() *AppError {
	return &AppError{
		Code:       CodeSlotConflict,
		Message:    "Another booking claimed this time slot first. Please refresh and choose again.",
		HTTPStatus: http.StatusConflict,
	}
}

func MaxBookingsExceeded() *AppError {
	return &AppError{
		Code:       CodeMaxBookingsExceeded,
		Message:    "This booking link has reached its booking limit",
		HTTPStatus: http.StatusConflict,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
