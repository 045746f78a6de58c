package registry_go

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type RegistryError struct {
	error       error
	errorCode   ErrorCode
	errorMsg    string
	title       string
	description string
}

func NewRegistryError(code ErrorCode, msg string) RegistryError {
	c := RegistryError{errorCode: code, errorMsg: msg}
	c.error = errors.WithStack(errors.New(fmt.Sprintf("Code: %s | %s", code, msg)))
	return c
}

// newServerError builds an error from the backend's error payload, falling
// back to the HTTP status text when the body carries no title.
func newServerError(code ErrorCode, status int, title, description string) RegistryError {
	if title == "" {
		title = http.StatusText(status)
	}
	msg := title
	if description != "" {
		msg = fmt.Sprintf("%s: %s", title, description)
	}
	c := NewRegistryError(code, msg)
	c.title = title
	c.description = description
	return c
}

func (c RegistryError) ErrorCode() ErrorCode {
	return c.errorCode
}

func (c RegistryError) Error() string {
	return c.error.Error()
}

func (c RegistryError) ErrorMessage() string {
	return c.errorMsg
}

// Title and Description are what the backend sent in its error body, if anything.
func (c RegistryError) Title() string {
	return c.title
}

func (c RegistryError) Description() string {
	return c.description
}

type ErrorCode string

const (
	ErrorUnknown       ErrorCode = "Unknown"
	ErrorNotFound      ErrorCode = "NotFound"
	ErrorAlreadyExists ErrorCode = "AlreadyExist"
	ErrorUnauthorized  ErrorCode = "Unauthorized"
	ErrorForbidden     ErrorCode = "Forbidden"
	ErrorConflict      ErrorCode = "Conflict"
	ErrorInvalid       ErrorCode = "Invalid"
	ErrorTimeout       ErrorCode = "Timeout"
	ErrorInternal      ErrorCode = "Internal"
	ErrorBadRequest    ErrorCode = "BadRequest"
)

// codeForStatus maps a non-2xx status the API methods did not expect.
func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return ErrorBadRequest
	case http.StatusUnauthorized:
		return ErrorUnauthorized
	case http.StatusForbidden:
		return ErrorForbidden
	case http.StatusNotFound:
		return ErrorNotFound
	case http.StatusConflict:
		return ErrorConflict
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTimeout
	case http.StatusUnprocessableEntity:
		return ErrorInvalid
	}
	if status >= http.StatusInternalServerError {
		return ErrorInternal
	}
	return ErrorUnknown
}

func CodeOf(e error) ErrorCode {
	var re RegistryError
	if errors.As(e, &re) {
		return re.errorCode
	}
	return ErrorUnknown
}

func IsNotFound(e error) bool {
	return e != nil && CodeOf(e) == ErrorNotFound
}

func IsUnauthorized(e error) bool {
	return e != nil && CodeOf(e) == ErrorUnauthorized
}

func IsInternal(e error) bool {
	return e != nil && CodeOf(e) == ErrorInternal
}

func IsConflict(e error) bool {
	return e != nil && CodeOf(e) == ErrorConflict
}
