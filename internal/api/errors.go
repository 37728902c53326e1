package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// ErrUnauthorized is returned for 401/403 responses. The session has
// already been revoked by the time a caller sees it.
var ErrUnauthorized = errors.New("api: authorization denied")

type Kind int

const (
	KindServer Kind = iota
	KindNetwork
	KindAuth
)

// Error describes a failed call. Message holds the server-provided
// "message" field when the body had one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case KindAuth:
		return fmt.Sprintf("authorization denied (%d)", e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d", e.Status)
}

func (e *Error) Unwrap() error {
	if e.Kind == KindAuth {
		return ErrUnauthorized
	}
	return e.Err
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func errorFromBody(status int, body []byte) *Error {
	e := &Error{Kind: KindServer, Status: status}
	if isAuthStatus(status) {
		e.Kind = KindAuth
	}
	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Message = strings.TrimSpace(payload.Message)
	}
	return e
}

// IsUnauthorized reports whether err came from a 401/403 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Message returns the server-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
