package utils

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

const (
	CodeValidation = 3001
	CodeNotFound   = 3004
	CodeConflict   = 3009
	CodeSystem     = 5001
	CodeUpstream   = 6001
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// Status overrides the HTTP status derived from Code.
	Status int `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// HTTPStatus maps the error code onto a response status.
func (e *APIError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func NewValidationError(field string, value interface{}) *APIError {
	return &APIError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("입력값 검증 실패: %s", field),
		Details: fmt.Sprintf("잘못된 값: %v", value),
	}
}

func NewRequiredError(message string) *APIError {
	return &APIError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s을(를) 찾을 수 없습니다.", what),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		Code:    CodeConflict,
		Message: message,
	}
}

// NewUpstreamError carries the external API's status; 0 means it was unreachable.
func NewUpstreamError(status int, message string) *APIError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &APIError{
		Code:    CodeUpstream,
		Message: message,
		Status:  status,
	}
}

func NewSystemError(err error) *APIError {
	return &APIError{
		Code:    CodeSystem,
		Message: "서버 내부 오류가 발생했습니다.",
		Details: err.Error(),
	}
}

// AsAPIError unwraps err to an *APIError, wrapping unknown errors as system errors.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewSystemError(err)
}
