package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindUnauthorized
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// User-facing messages per failure category.
const (
	MsgNetwork        = "Unable to reach the server. Please check your connection."
	MsgInvalidInput   = "Invalid input."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgInvalidLogin   = "Invalid email or password."
	MsgNotFound       = "The requested resource was not found."
	MsgServer         = "Something went wrong. Please try again later."
	MsgUnexpected     = "An unexpected error occurred."
	MsgUnsupportedAcc = "This account cannot use the procurement portal."
	LoginFailedTitle  = "Login Failed"
)

// Error is returned by every Client method that fails.
type Error struct {
	// Op is "<METHOD> <path>".
	Op string

	Kind       Kind
	StatusCode int

	// Message is the backend supplied message, if any.
	Message string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// KindOf returns the category of err. Errors that did not come from the
// client are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }

// Message turns err into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return MsgUnexpected
	}
	switch e.Kind {
	case KindNetwork:
		return MsgNetwork
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return MsgInvalidInput
	case KindUnauthorized:
		return MsgSessionExpired
	case KindNotFound:
		return MsgNotFound
	case KindServer:
		return MsgServer
	default:
		return MsgUnexpected
	}
}

// LoginMessage is Message for the login attempt, where a 401 means bad
// credentials rather than an expired session.
func LoginMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUnauthorized {
		if e.Message != "" {
			return e.Message
		}
		return MsgInvalidLogin
	}
	return Message(err)
}

// errorMessage extracts "message" (string or list) or "error" from a backend
// error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Message) > 0 {
		var s string
		if json.Unmarshal(payload.Message, &s) == nil {
			return strings.TrimSpace(s)
		}
		var list []string
		if json.Unmarshal(payload.Message, &list) == nil {
			return strings.Join(list, "; ")
		}
	}
	return strings.TrimSpace(payload.Error)
}
