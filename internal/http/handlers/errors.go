package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Error messages returned to clients.
const (
	msgTrialExhausted    = "Free trial exhausted. Purchase tokens to continue."
	msgAnalysisFailed    = "Analysis failed: "
	msgTrialCheckFailed  = "Trial check failed"
	msgTrialStatusFailed = "Failed to read trial status"
)

// ErrorBody is the body of every error response. Detail is always a plain string.
type ErrorBody struct {
	status int
	Detail string `json:"detail" doc:"Human-readable error message"`
}

func (e *ErrorBody) Error() string {
	return e.Detail
}

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.status
}

func init() {
	huma.NewError = NewError
}

// NewError replaces huma's RFC 9457 error model. Validation details are
// flattened into the detail string so nested objects never reach clients.
// Request parse failures (400) are reported as 422 like other invalid input.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusBadRequest {
		status = http.StatusUnprocessableEntity
	}

	var details []string
	for _, err := range errs {
		if err != nil {
			details = append(details, errorText(err))
		}
	}

	detail := msg
	if detail == "" {
		detail = http.StatusText(status)
	}
	if len(details) > 0 {
		detail += ": " + strings.Join(details, "; ")
	}

	return &ErrorBody{status: status, Detail: detail}
}

// errorText renders err without the offending value. huma's ErrorDetail.Error
// prints the value with %v, which would echo maps and the whole request body.
func errorText(err error) string {
	var detail *huma.ErrorDetail
	if !errors.As(err, &detail) {
		return err.Error()
	}
	if detail.Location == "" {
		return detail.Message
	}
	return detail.Message + " (" + detail.Location + ")"
}

func errPaymentRequired(msg string) huma.StatusError {
	return huma.NewError(http.StatusPaymentRequired, msg)
}
