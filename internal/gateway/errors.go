package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"

	"slidegenie/internal/domain"
)

const (
	msgNetwork = "Network error - please check your connection"
	msgGeneric = "An error occurred"
)

// APIError is every failed gateway call. Status 0 means no response was
// received.
type APIError struct {
	Status  int
	Message string
	Data    json.RawMessage
	cause   error
}

func (e *APIError) Error() string { return e.Message }

// StatusCode implements domain.HTTPError.
func (e *APIError) StatusCode() int { return e.Status }

func (e *APIError) Unwrap() error { return e.cause }

// Is maps the status onto the domain sentinels, so callers can write
// errors.Is(err, domain.ErrNotFound).
func (e *APIError) Is(target error) bool {
	s := domain.SentinelForStatus(e.Status)
	return s != nil && s == target
}

func networkError(cause error) *APIError {
	return &APIError{Message: msgNetwork, cause: cause}
}

// responseError builds the error for a non-2xx response. The message comes
// from the body's message, detail or error field.
func responseError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Message: msgGeneric}
	if gjson.ValidBytes(body) {
		e.Data = json.RawMessage(body)
		for _, key := range []string{"message", "detail", "error", "error.message"} {
			if r := gjson.GetBytes(body, key); r.Type == gjson.String && r.Str != "" {
				e.Message = r.Str
				break
			}
		}
	}
	if e.Message == msgGeneric && status == http.StatusTooManyRequests {
		e.Message = http.StatusText(status)
	}
	return e
}
