// Package response provides the canned JSON envelopes returned by the HTTP
// API. Error responses carry a stable status and a best-effort error_code
// string for diagnostics.
package response

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	ErrorCode:  "EMPTY_REQUEST_BODY",
	Message:    "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	ErrorCode:  "INVALID_REQUEST_BODY",
	Message:    "Invalid request body.",
}

var UnauthorizedResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusUnauthorized,
	ErrorCode:  "UNAUTHENTICATED",
	Message:    "Authentication is required to shorten URLs.",
}

var ResourceNotFoundResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusNotFound,
	ErrorCode:  "NOT_FOUND",
	Message:    "The requested resource was not found.",
}

var QuotaExceededResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusTooManyRequests,
	ErrorCode:  "QUOTA_EXCEEDED",
	Message:    "Monthly quota exceeded. Retry after the start of next month.",
}

var ServerErrorResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusInternalServerError,
	ErrorCode:  "DEPENDENCY_FAILURE",
	Message:    "An internal server error occurred. Please try again later.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:     StatusError,
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "VALIDATION_ERROR",
		Message:    "Request validation failed.",
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			resp.Details = append(resp.Details, map[string]string{
				"field": fieldErr.Field(),
				"rule":  fieldErr.Tag(),
			})
		}
	}

	return resp
}
