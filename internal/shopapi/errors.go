package shopapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the access token was missing, invalid or expired.
	// Callers treat it as the signal to clear the session.
	ErrUnauthorized = errors.New("shopapi: unauthorized")
	ErrNotFound     = errors.New("shopapi: not found")
)

// UnprocessableEntityError is the 422 shape: a message plus per-field messages.
type UnprocessableEntityError struct {
	Message string
	Fields  map[string]string
}

func (e *UnprocessableEntityError) Error() string {
	return fmt.Sprintf("shopapi: unprocessable entity: %s (%d fields)", e.Message, len(e.Fields))
}

// StatusError covers every other non-2xx answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopapi: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("shopapi: %d %s", e.Code, e.Message)
}

// FieldErrors returns the per-field messages when err is a 422.
func FieldErrors(err error) (map[string]string, bool) {
	var ue *UnprocessableEntityError
	if errors.As(err, &ue) {
		return ue.Fields, true
	}
	return nil, false
}

// fieldMessages flattens the 422 data object. Values are either plain strings
// or objects carrying a "msg".
func fieldMessages(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case string:
			out[k] = t
		case map[string]any:
			if msg, ok := t["msg"].(string); ok {
				out[k] = msg
			}
		}
	}
	return out
}
