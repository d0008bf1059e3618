// Package llm provides the client for the OpenAI-compatible LLM proxy.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

var (
	// ErrEmptyCompletion indicates the proxy answered 2xx without any choices.
	ErrEmptyCompletion = errors.New("empty response from LLM")

	// ErrMalformedEnvelope indicates the proxy body was not a chat-completion JSON object.
	ErrMalformedEnvelope = errors.New("malformed LLM response envelope")
)

// maxErrorBodyLen bounds how much of an upstream error body is kept.
const maxErrorBodyLen = 512

// StatusError is returned when the proxy answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("LLM proxy returned status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("LLM proxy returned status %d: %s", e.StatusCode, e.Body)
}

// newStatusError truncates body so a large HTML error page doesn't end up in logs or responses.
func newStatusError(status int, body []byte) *StatusError {
	return &StatusError{StatusCode: status, Body: truncateBody(string(body), maxErrorBodyLen)}
}

// truncateBody cuts s to at most n bytes on a rune boundary.
func truncateBody(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == status
}
